package alert

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang-cafe/job-alerts/internal/email"
	"github.com/golang-cafe/job-alerts/internal/job"
	"github.com/golang-cafe/job-alerts/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSendTimeout = 10 * time.Second
	DefaultConcurrency = 4
)

// Store loads the alerts a new job is evaluated against.
type Store interface {
	FindActive(ctx context.Context) ([]*Alert, error)
}

// Sender delivers one email. Send should return once ctx is done.
type Sender interface {
	Send(ctx context.Context, msg email.Message) error
}

// Dispatcher fans a new job out to every subscriber whose alert matches it.
type Dispatcher struct {
	store       Store
	sender      Sender
	renderer    Renderer
	log         zerolog.Logger
	sendTimeout time.Duration
	concurrency int
}

type Option func(*Dispatcher)

func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

func WithSendTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.sendTimeout = t
		}
	}
}

func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

func NewDispatcher(store Store, sender Sender, renderer Renderer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:       store,
		sender:      sender,
		renderer:    renderer,
		log:         zerolog.Nop(),
		sendTimeout: DefaultSendTimeout,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NotifyOnNewJob emails every active subscriber whose alert matches j.
// It never returns an error: a failure to load alerts yields a zero result,
// and each failed delivery is logged and counted without affecting the others.
func (d *Dispatcher) NotifyOnNewJob(ctx context.Context, j *job.Job) Result {
	if j == nil {
		return Result{}
	}
	start := time.Now()
	defer func() {
		metrics.AlertDispatchDuration.Observe(time.Since(start).Seconds())
	}()

	alerts, err := d.store.FindActive(ctx)
	if err != nil {
		d.log.Error().Err(err).Str("job_id", j.ID).Msg("unable to load active job alerts")
		return Result{}
	}

	var notified, failed int64
	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)
	for _, a := range alerts {
		if a == nil || !a.IsActive || !IsMatch(a, j) {
			continue
		}
		a := a
		g.Go(func() error {
			if err := d.deliver(ctx, a, j); err != nil {
				atomic.AddInt64(&failed, 1)
				metrics.AlertNotifications.WithLabelValues(metrics.StatusFailed).Inc()
				d.log.Error().Err(err).Str("alert_id", a.ID).Str("job_id", j.ID).Msg("unable to send job alert")
				return nil
			}
			atomic.AddInt64(&notified, 1)
			metrics.AlertNotifications.WithLabelValues(metrics.StatusSent).Inc()
			return nil
		})
	}
	g.Wait()

	res := Result{Notified: int(notified), Failed: int(failed)}
	d.log.Info().
		Str("job_id", j.ID).
		Int("notified", res.Notified).
		Int("failed", res.Failed).
		Msgf("notified %d subscribers about new job %s, %d failed", res.Notified, j.ID, res.Failed)
	return res
}

// NotifyAsync runs NotifyOnNewJob in the background. The caller never sees
// the outcome; a panic inside the run is logged and swallowed.
func (d *Dispatcher) NotifyAsync(j *job.Job) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.log.Error().Interface("panic", r).Msg("job alert dispatch panicked")
			}
		}()
		d.NotifyOnNewJob(context.Background(), j)
	}()
}

// Resend delivers the alert email for one (alert, job) pair on demand,
// regardless of whether the pair currently matches.
func (d *Dispatcher) Resend(ctx context.Context, a *Alert, j *job.Job) error {
	if err := d.deliver(ctx, a, j); err != nil {
		metrics.AlertNotifications.WithLabelValues(metrics.StatusFailed).Inc()
		return err
	}
	metrics.AlertNotifications.WithLabelValues(metrics.StatusSent).Inc()
	return nil
}

// deliver renders and sends one email. A panic while rendering or sending
// is returned as an error. The send is abandoned once the per-send timeout
// expires; senders must honour ctx, otherwise an abandoned send keeps its
// goroutine blocked until the sender returns.
func (d *Dispatcher) deliver(ctx context.Context, a *Alert, j *job.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while rendering job alert: %v", r)
		}
	}()
	msg, err := d.renderer.Render(a, j)
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic while sending job alert: %v", r)
			}
		}()
		done <- d.sender.Send(sendCtx, msg)
	}()
	select {
	case err := <-done:
		return err
	case <-sendCtx.Done():
		return sendCtx.Err()
	}
}
