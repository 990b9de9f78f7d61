package handler

import (
	"net/http"

	"github.com/golang-cafe/job-alerts/internal/middleware"
	"github.com/golang-cafe/job-alerts/internal/server"
	"github.com/golang-cafe/job-alerts/internal/user"
	"github.com/pkg/errors"
)

type authenticator interface {
	Authenticate(email, password string) (*user.User, error)
}

type loginResponse struct {
	AccessToken string     `json:"access_token"`
	User        *user.User `json:"user"`
}

// LoginHandler checks the credentials, stores a signed JWT in the session
// cookie and returns it so API clients can send it as a bearer token.
func LoginHandler(svr server.Server, userRepo authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rq := &struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}{}
		if err := decodeJSON(r, rq); err != nil {
			svr.Error(w, http.StatusBadRequest, "request is invalid")
			return
		}
		u, err := userRepo.Authenticate(rq.Email, rq.Password)
		if errors.Cause(err) == user.ErrInvalidCredentials {
			svr.Error(w, http.StatusUnauthorized, err.Error())
			return
		}
		if err != nil {
			svr.Log(err, "unable to authenticate user")
			svr.Error(w, http.StatusInternalServerError, "unable to sign in")
			return
		}
		token, err := middleware.NewToken(svr.GetJWTSigningKey(), svr.GetConfig().AppURL, u.ID, u.Email, u.Role)
		if err != nil {
			svr.Log(err, "unable to sign jwt")
			svr.Error(w, http.StatusInternalServerError, "unable to sign in")
			return
		}
		sess, err := svr.SessionStore.Get(r, middleware.SessionName)
		if err != nil {
			svr.Log(err, "unable to read session, issuing a new one")
		}
		sess.Values["jwt"] = token
		if err := sess.Save(r, w); err != nil {
			svr.Log(err, "unable to save jwt into session cookie")
			svr.Error(w, http.StatusInternalServerError, "unable to sign in")
			return
		}
		svr.JSON(w, http.StatusOK, loginResponse{AccessToken: token, User: u})
	}
}

func LogoutHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svr.SessionStore.Get(r, middleware.SessionName)
		if err == nil {
			delete(sess.Values, "jwt")
			sess.Options.MaxAge = -1
			if err := sess.Save(r, w); err != nil {
				svr.Log(err, "unable to clear session cookie")
			}
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "signed out"})
	}
}

// MeHandler returns the claims of the signed-in user.
func MeHandler(svr server.Server) http.HandlerFunc {
	return middleware.UserAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			claims, _ := svr.CurrentUser(r)
			svr.JSON(w, http.StatusOK, map[string]interface{}{
				"user_id":  claims.UserID,
				"email":    claims.Email,
				"role":     claims.Role,
				"is_admin": claims.IsAdmin,
			})
		},
	)
}
