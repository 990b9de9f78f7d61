package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-cafe/job-alerts/internal/handler"
	"github.com/golang-cafe/job-alerts/internal/middleware"
	"github.com/golang-cafe/job-alerts/internal/role"
	"github.com/golang-cafe/job-alerts/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator struct {
	users map[string]*user.User
	pass  map[string]string
}

func (a fakeAuthenticator) Authenticate(email, password string) (*user.User, error) {
	u, ok := a.users[email]
	if !ok || a.pass[email] != password {
		return nil, user.ErrInvalidCredentials
	}
	return u, nil
}

func TestLogin(t *testing.T) {
	svr := newTestServer(t)
	auth := fakeAuthenticator{
		users: map[string]*user.User{"admin@example.com": {ID: "u1", Email: "admin@example.com", Role: role.NormalizeName("Admin")}},
		pass:  map[string]string{"admin@example.com": "correct horse"},
	}
	h := handler.LoginHandler(svr, auth)

	rec := do(t, h, call{method: http.MethodPost, path: "/auth/login", body: `{"email": "admin@example.com", "password": "correct horse"}`})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Set-Cookie"))
	var res struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID       string `json:"id"`
			Password string `json:"password"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "u1", res.User.ID)
	assert.Empty(t, res.User.Password)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+res.AccessToken)
	claims, err := middleware.GetUserFromJWT(req, nil, jwtKey)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "admin@example.com", claims.Email)

	rec = do(t, h, call{method: http.MethodPost, path: "/auth/login", body: `{"email": "admin@example.com", "password": "wrong"}`})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeAndLogout(t *testing.T) {
	svr := newTestServer(t)
	rec := do(t, handler.MeHandler(svr), call{path: "/auth/me", token: token(t, "u9", "member")})
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&me))
	assert.Equal(t, "u9", me["user_id"])
	assert.Equal(t, false, me["is_admin"])

	assert.Equal(t, http.StatusUnauthorized, do(t, handler.MeHandler(svr), call{path: "/auth/me"}).Code)
	assert.Equal(t, http.StatusOK, do(t, handler.LogoutHandler(svr), call{method: http.MethodPost, path: "/auth/logout"}).Code)
}
