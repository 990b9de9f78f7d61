package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/golang-cafe/job-alerts/internal/alert"
	"github.com/golang-cafe/job-alerts/internal/handler"
	"github.com/golang-cafe/job-alerts/internal/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAlertStore struct {
	mu     sync.Mutex
	alerts map[string]*alert.Alert
}

func newAlertStore(alerts ...*alert.Alert) *fakeAlertStore {
	s := &fakeAlertStore{alerts: map[string]*alert.Alert{}}
	for _, a := range alerts {
		s.alerts[a.ID] = a
	}
	return s
}

func (s *fakeAlertStore) GetByID(id string) (*alert.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return nil, alert.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *fakeAlertStore) FindAll() ([]*alert.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*alert.Alert{}
	for _, a := range s.alerts {
		out = append(out, a)
	}
	return out, nil
}

func (s *fakeAlertStore) Create(a *alert.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = "new-alert"
	s.alerts[a.ID] = a
	return nil
}

func (s *fakeAlertStore) Update(a *alert.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[a.ID] = a
	return nil
}

func (s *fakeAlertStore) SetActive(id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return alert.ErrNotFound
	}
	a.IsActive = active
	return nil
}

func (s *fakeAlertStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[id]; !ok {
		return alert.ErrNotFound
	}
	delete(s.alerts, id)
	return nil
}

type fakeResender struct {
	err  error
	sent []string
}

func (r *fakeResender) Resend(ctx context.Context, a *alert.Alert, j *job.Job) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, a.ID+"/"+j.ID)
	return nil
}

func TestCreateJobAlert(t *testing.T) {
	svr := newTestServer(t)
	store := newAlertStore()
	h := handler.CreateJobAlertHandler(svr, store)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"email": "Dev@Example.com", "search_pattern": "go, remote", "salary_min": "40000"}`, http.StatusCreated},
		{"missing email", `{"search_pattern": "go"}`, http.StatusBadRequest},
		{"invalid email", `{"email": "not-an-email"}`, http.StatusBadRequest},
		{"malformed json", `{"email":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, call{method: http.MethodPost, path: "/job-alerts", body: tt.body})
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	a, err := store.GetByID("new-alert")
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", a.Email)
	assert.True(t, a.IsActive)
	require.NotNil(t, a.SalaryMin)
	assert.Equal(t, 40000.0, *a.SalaryMin)
	assert.Nil(t, a.UserID)
}

func TestCreateJobAlertLinksSignedInUser(t *testing.T) {
	store := newAlertStore()
	rec := do(t, handler.CreateJobAlertHandler(newTestServer(t), store), call{
		method: http.MethodPost,
		path:   "/job-alerts",
		body:   `{"email": "dev@example.com"}`,
		token:  token(t, "u42", ""),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	a, err := store.GetByID("new-alert")
	require.NoError(t, err)
	require.NotNil(t, a.UserID)
	assert.Equal(t, "u42", *a.UserID)
}

func TestUpdateJobAlert(t *testing.T) {
	store := newAlertStore(&alert.Alert{ID: "a1", Email: "dev@example.com", IsActive: true})
	h := handler.UpdateJobAlertHandler(newTestServer(t), store)

	rec := do(t, h, call{method: http.MethodPatch, pattern: "/job-alerts/{id}", path: "/job-alerts/a1", body: `{"location": "Remote", "is_active": false}`})
	require.Equal(t, http.StatusOK, rec.Code)
	a, _ := store.GetByID("a1")
	require.NotNil(t, a.Location)
	assert.Equal(t, "Remote", *a.Location)
	assert.False(t, a.IsActive)

	rec = do(t, h, call{method: http.MethodPatch, pattern: "/job-alerts/{id}", path: "/job-alerts/missing", body: `{}`})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnsubscribeJobAlert(t *testing.T) {
	store := newAlertStore(&alert.Alert{ID: "a1", Email: "dev@example.com", IsActive: true})
	h := handler.UnsubscribeJobAlertHandler(newTestServer(t), store)

	rec := do(t, h, call{pattern: "/job-alerts/{id}/unsubscribe", path: "/job-alerts/a1/unsubscribe"})
	assert.Equal(t, http.StatusOK, rec.Code)
	a, _ := store.GetByID("a1")
	assert.False(t, a.IsActive)

	rec = do(t, h, call{pattern: "/job-alerts/{id}/unsubscribe", path: "/job-alerts/nope/unsubscribe"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteJobAlert(t *testing.T) {
	store := newAlertStore(&alert.Alert{ID: "a1", Email: "dev@example.com"})
	h := handler.DeleteJobAlertHandler(newTestServer(t), store)

	rec := do(t, h, call{method: http.MethodDelete, pattern: "/job-alerts/{id}", path: "/job-alerts/a1"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, call{method: http.MethodDelete, pattern: "/job-alerts/{id}", path: "/job-alerts/a1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListJobAlertsRequiresAdmin(t *testing.T) {
	store := newAlertStore(&alert.Alert{ID: "a1", Email: "dev@example.com"})
	h := handler.ListJobAlertsHandler(newTestServer(t), store)

	assert.Equal(t, http.StatusUnauthorized, do(t, h, call{path: "/job-alerts"}).Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, call{path: "/job-alerts", token: token(t, "u1", "member")}).Code)

	rec := do(t, h, call{path: "/job-alerts", token: token(t, "u1", "admin")})
	require.Equal(t, http.StatusOK, rec.Code)
	var alerts []alert.Alert
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&alerts))
	assert.Len(t, alerts, 1)
}

func TestResendJobAlert(t *testing.T) {
	store := newAlertStore(&alert.Alert{ID: "a1", Email: "dev@example.com", IsActive: true})
	jobs := newJobStore(&job.Job{ID: "j1", Title: "Go Developer", Company: "Acme", Location: "Remote"})
	admin := token(t, "u1", "admin")
	pattern := "/job-alerts/{id}/jobs/{jobID}/resend"

	resender := &fakeResender{}
	h := handler.ResendJobAlertHandler(newTestServer(t), store, jobs, resender)
	rec := do(t, h, call{method: http.MethodPost, pattern: pattern, path: "/job-alerts/a1/jobs/j1/resend", token: admin})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"a1/j1"}, resender.sent)

	rec = do(t, h, call{method: http.MethodPost, pattern: pattern, path: "/job-alerts/a1/jobs/nope/resend", token: admin})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	failing := handler.ResendJobAlertHandler(newTestServer(t), store, jobs, &fakeResender{err: errors.New("smtp down")})
	rec = do(t, failing, call{method: http.MethodPost, pattern: pattern, path: "/job-alerts/a1/jobs/j1/resend", token: admin})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
