package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-cafe/job-alerts/internal/config"
	"github.com/golang-cafe/job-alerts/internal/middleware"
	"github.com/golang-cafe/job-alerts/internal/server"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var jwtKey = []byte("test-signing-key")

func newTestServer(t *testing.T) server.Server {
	t.Helper()
	cfg := config.Config{
		Env:                 "dev",
		AppURL:              "https://jobs.example.com",
		JwtSigningKey:       jwtKey,
		JobsPerPage:         10,
		NotificationTimeout: time.Second,
	}
	store := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	return server.NewServer(cfg, nil, mux.NewRouter(), store, zerolog.Nop())
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tk, err := middleware.NewToken(jwtKey, "test", userID, userID+"@example.com", role)
	require.NoError(t, err)
	return tk
}

type call struct {
	method  string
	pattern string
	path    string
	body    string
	token   string
	headers map[string]string
}

// do routes a single request through a router so path variables resolve.
func do(t *testing.T, h http.HandlerFunc, c call) *httptest.ResponseRecorder {
	t.Helper()
	r := mux.NewRouter()
	pattern := c.pattern
	if pattern == "" {
		pattern = c.path
	}
	r.HandleFunc(pattern, h)
	var body io.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	}
	method := c.method
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, c.path, body)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}
