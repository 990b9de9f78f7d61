package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-cafe/job-alerts/internal/middleware"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtKey = []byte("test-signing-key")

func ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestExtractToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc": "abc",
		"bearer abc": "abc",
		"Basic abc":  "",
		"Bearer":     "",
		"":           "",
		"Bearer a b": "",
	}
	for header, want := range tests {
		t.Run(header, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", header)
			assert.Equal(t, want, middleware.ExtractToken(r))
		})
	}
}

func TestAdminAuthenticatedMiddleware(t *testing.T) {
	store := sessions.NewCookieStore([]byte("session-key-session-key-12345678"))
	admin, err := middleware.NewToken(jwtKey, "test", "u1", "admin@example.com", middleware.RoleAdmin)
	require.NoError(t, err)
	user, err := middleware.NewToken(jwtKey, "test", "u2", "user@example.com", "candidate")
	require.NoError(t, err)
	forged, err := middleware.NewToken([]byte("other-key"), "test", "u3", "x@example.com", middleware.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"admin", admin, http.StatusOK},
		{"regular user", user, http.StatusForbidden},
		{"wrong signature", forged, http.StatusUnauthorized},
		{"no token", "", http.StatusUnauthorized},
	}
	h := middleware.AdminAuthenticatedMiddleware(store, jwtKey, ok)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				r.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			h(w, r)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestGetUserFromJWTSessionCookie(t *testing.T) {
	store := sessions.NewCookieStore([]byte("session-key-session-key-12345678"))
	tk, err := middleware.NewToken(jwtKey, "test", "u1", "dev@example.com", "superadmin")
	require.NoError(t, err)

	// write the session cookie the way the login handler does
	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	w := httptest.NewRecorder()
	sess, err := store.Get(r, middleware.SessionName)
	require.NoError(t, err)
	sess.Values["jwt"] = tk
	require.NoError(t, sess.Save(r, w))

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r2.AddCookie(c)
	}
	claims, err := middleware.GetUserFromJWT(r2, store, jwtKey)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.True(t, claims.IsAdmin)
}

func TestHeadersMiddleware(t *testing.T) {
	w := httptest.NewRecorder()
	middleware.HeadersMiddleware(http.HandlerFunc(ok), "prod").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = httptest.NewRecorder()
	middleware.HeadersMiddleware(http.HandlerFunc(ok), "dev").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, w.Header().Get("X-Content-Type-Options"))
}
