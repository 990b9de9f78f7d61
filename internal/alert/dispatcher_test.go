package alert_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-cafe/job-alerts/internal/alert"
	"github.com/golang-cafe/job-alerts/internal/email"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	alerts []*alert.Alert
	err    error
}

func (s fakeStore) FindActive(ctx context.Context) ([]*alert.Alert, error) {
	return s.alerts, s.err
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []email.Message
	fail     map[string]error
	hang     map[string]bool
	panics   map[string]bool
	delay    time.Duration
	inFlight int32
	maxSeen  int32
}

func (s *fakeSender) Send(ctx context.Context, msg email.Message) error {
	n := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&s.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&s.maxSeen, seen, n) {
			break
		}
	}
	to := msg.To.Email
	if s.panics[to] {
		panic("boom")
	}
	if s.hang[to] {
		<-make(chan struct{})
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err := s.fail[to]; err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []string{}
	for _, m := range s.sent {
		out = append(out, m.To.Email)
	}
	return out
}

func subscriber(id, addr string) *alert.Alert {
	return &alert.Alert{ID: id, Email: addr, IsActive: true}
}

func newDispatcher(store alert.Store, sender alert.Sender, opts ...alert.Option) *alert.Dispatcher {
	return alert.NewDispatcher(store, sender, alert.NewRenderer("https://jobs.example.com"), opts...)
}

func TestNotifyOnNewJobLoadFailure(t *testing.T) {
	var logs bytes.Buffer
	sender := &fakeSender{}
	d := newDispatcher(fakeStore{err: errors.New("connection refused")}, sender, alert.WithLogger(zerolog.New(zerolog.SyncWriter(&logs))))

	res := d.NotifyOnNewJob(context.Background(), goJob())

	assert.Equal(t, alert.Result{}, res)
	assert.Empty(t, sender.recipients())
	assert.Contains(t, logs.String(), "connection refused")
}

func TestNotifyOnNewJobIsolatesFailures(t *testing.T) {
	var logs bytes.Buffer
	store := fakeStore{alerts: []*alert.Alert{
		subscriber("a1", "one@example.com"),
		subscriber("a2", "two@example.com"),
		subscriber("a3", "three@example.com"),
	}}
	sender := &fakeSender{fail: map[string]error{"two@example.com": errors.New("mailbox unavailable")}}
	d := newDispatcher(store, sender, alert.WithLogger(zerolog.New(zerolog.SyncWriter(&logs))))

	res := d.NotifyOnNewJob(context.Background(), goJob())

	assert.Equal(t, alert.Result{Notified: 2, Failed: 1}, res)
	assert.ElementsMatch(t, []string{"one@example.com", "three@example.com"}, sender.recipients())
	out := logs.String()
	assert.Contains(t, out, "mailbox unavailable")
	assert.Contains(t, out, `"alert_id":"a2"`)
	assert.Contains(t, out, `"job_id":"j1"`)
	assert.Contains(t, out, "notified 2 subscribers about new job j1, 1 failed")
}

func TestNotifyOnNewJobSkipsInactiveAndNonMatching(t *testing.T) {
	inactive := subscriber("a1", "inactive@example.com")
	inactive.IsActive = false
	berlin := subscriber("a2", "berlin@example.com")
	berlin.Location = str("Berlin")
	madrid := subscriber("a3", "madrid@example.com")
	madrid.Location = str("madrid")
	store := fakeStore{alerts: []*alert.Alert{inactive, berlin, madrid, nil}}
	sender := &fakeSender{}

	res := newDispatcher(store, sender).NotifyOnNewJob(context.Background(), goJob())

	assert.Equal(t, alert.Result{Notified: 1}, res)
	assert.Equal(t, []string{"madrid@example.com"}, sender.recipients())
}

func TestNotifyOnNewJobNoSubscribers(t *testing.T) {
	res := newDispatcher(fakeStore{}, &fakeSender{}).NotifyOnNewJob(context.Background(), goJob())
	assert.Equal(t, alert.Result{}, res)
}

func TestNotifyOnNewJobTimeoutAndPanic(t *testing.T) {
	store := fakeStore{alerts: []*alert.Alert{
		subscriber("a1", "slow@example.com"),
		subscriber("a2", "panic@example.com"),
		subscriber("a3", "ok@example.com"),
	}}
	sender := &fakeSender{
		hang:   map[string]bool{"slow@example.com": true},
		panics: map[string]bool{"panic@example.com": true},
	}
	d := newDispatcher(store, sender, alert.WithSendTimeout(50*time.Millisecond))

	start := time.Now()
	res := d.NotifyOnNewJob(context.Background(), goJob())

	assert.Equal(t, alert.Result{Notified: 1, Failed: 2}, res)
	assert.Equal(t, []string{"ok@example.com"}, sender.recipients())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNotifyOnNewJobBoundedConcurrency(t *testing.T) {
	alerts := []*alert.Alert{}
	for i := 0; i < 10; i++ {
		alerts = append(alerts, subscriber("a", "dev@example.com"))
	}
	sender := &fakeSender{delay: 10 * time.Millisecond}
	d := newDispatcher(fakeStore{alerts: alerts}, sender, alert.WithConcurrency(2))

	res := d.NotifyOnNewJob(context.Background(), goJob())

	assert.Equal(t, 10, res.Notified)
	assert.LessOrEqual(t, atomic.LoadInt32(&sender.maxSeen), int32(2))
}

func TestNotifyAsync(t *testing.T) {
	sender := &fakeSender{}
	d := newDispatcher(fakeStore{alerts: []*alert.Alert{subscriber("a1", "one@example.com")}}, sender)

	d.NotifyAsync(goJob())

	assert.Eventually(t, func() bool {
		return len(sender.recipients()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestResend(t *testing.T) {
	sender := &fakeSender{fail: map[string]error{"bad@example.com": errors.New("rejected")}}
	d := newDispatcher(fakeStore{}, sender)

	nonMatching := subscriber("a1", "one@example.com")
	nonMatching.Location = str("Berlin")
	require.NoError(t, d.Resend(context.Background(), nonMatching, goJob()))
	assert.Equal(t, []string{"one@example.com"}, sender.recipients())

	assert.Error(t, d.Resend(context.Background(), subscriber("a2", "bad@example.com"), goJob()))
}

func TestResendRecoversRenderPanic(t *testing.T) {
	sender := &fakeSender{}
	d := newDispatcher(fakeStore{}, sender)

	var err error
	require.NotPanics(t, func() {
		err = d.Resend(context.Background(), nil, goJob())
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic while rendering job alert")
	assert.Empty(t, sender.recipients())
}
