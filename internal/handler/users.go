package handler

import (
	"fmt"
	"net/http"

	"github.com/golang-cafe/job-alerts/internal/middleware"
	"github.com/golang-cafe/job-alerts/internal/role"
	"github.com/golang-cafe/job-alerts/internal/server"
	"github.com/golang-cafe/job-alerts/internal/user"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type userStore interface {
	GetByID(id string) (*user.User, error)
	FindAll() ([]*user.User, error)
	Create(rq user.UserRq) (*user.User, error)
	Update(id string, rq user.UserRq) (*user.User, error)
	Delete(id string) error
}

type roleStore interface {
	Create(rq role.RoleRq) (*role.Role, error)
	FindAll() ([]*role.Role, error)
	GetByID(id string) (*role.Role, error)
	Update(id string, rq role.RoleRq) (*role.Role, error)
	Delete(id string) error
}

// userError maps repository errors to a status code and a message the
// client can act on.
func userError(err error) (int, string) {
	switch errors.Cause(err) {
	case user.ErrNotFound:
		return http.StatusNotFound, err.Error()
	case user.ErrDuplicate, user.ErrWeakPassword:
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "unable to process user"
}

func roleError(err error) (int, string) {
	switch errors.Cause(err) {
	case role.ErrNotFound:
		return http.StatusNotFound, err.Error()
	case role.ErrDuplicate, role.ErrEmptyName:
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "unable to process role"
}

// validRole checks that a role id sent along with a user exists. An empty id
// clears the user's role.
func validRole(roleRepo roleStore, roleID *string) error {
	if roleID == nil || *roleID == "" {
		return nil
	}
	_, err := roleRepo.GetByID(*roleID)
	return err
}

func ListUsersHandler(svr server.Server, userRepo userStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			users, err := userRepo.FindAll()
			if err != nil {
				svr.Log(err, "unable to retrieve users")
				svr.Error(w, http.StatusInternalServerError, "unable to retrieve users")
				return
			}
			svr.JSON(w, http.StatusOK, users)
		},
	)
}

func GetUserHandler(svr server.Server, userRepo userStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			u, err := userRepo.GetByID(mux.Vars(r)["id"])
			if err != nil {
				status, msg := userError(err)
				if status == http.StatusInternalServerError {
					svr.Log(err, "unable to retrieve user")
				}
				svr.Error(w, status, msg)
				return
			}
			svr.JSON(w, http.StatusOK, u)
		},
	)
}

func CreateUserHandler(svr server.Server, userRepo userStore, roleRepo roleStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			var rq user.UserRq
			if err := decodeJSON(r, &rq); err != nil {
				svr.Error(w, http.StatusBadRequest, "request is invalid")
				return
			}
			if !svr.IsEmail(user.NormalizeEmail(rq.Email)) {
				svr.Error(w, http.StatusBadRequest, "email is invalid")
				return
			}
			if err := validRole(roleRepo, rq.RoleID); err != nil {
				status, msg := roleError(err)
				if status == http.StatusNotFound {
					status = http.StatusBadRequest
				}
				svr.Error(w, status, msg)
				return
			}
			u, err := userRepo.Create(rq)
			if err != nil {
				status, msg := userError(err)
				if status == http.StatusInternalServerError {
					svr.Log(err, "unable to create user")
				}
				svr.Error(w, status, msg)
				return
			}
			svr.JSON(w, http.StatusCreated, u)
		},
	)
}

func UpdateUserHandler(svr server.Server, userRepo userStore, roleRepo roleStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			var rq user.UserRq
			if err := decodeJSON(r, &rq); err != nil {
				svr.Error(w, http.StatusBadRequest, "request is invalid")
				return
			}
			if rq.Email != "" && !svr.IsEmail(user.NormalizeEmail(rq.Email)) {
				svr.Error(w, http.StatusBadRequest, "email is invalid")
				return
			}
			if err := validRole(roleRepo, rq.RoleID); err != nil {
				status, msg := roleError(err)
				if status == http.StatusNotFound {
					status = http.StatusBadRequest
				}
				svr.Error(w, status, msg)
				return
			}
			u, err := userRepo.Update(mux.Vars(r)["id"], rq)
			if err != nil {
				status, msg := userError(err)
				if status == http.StatusInternalServerError {
					svr.Log(err, "unable to update user")
				}
				svr.Error(w, status, msg)
				return
			}
			svr.JSON(w, http.StatusOK, u)
		},
	)
}

func DeleteUserHandler(svr server.Server, userRepo userStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			id := mux.Vars(r)["id"]
			if claims, ok := svr.CurrentUser(r); ok && claims.UserID == id {
				svr.Error(w, http.StatusBadRequest, "you cannot delete your own user")
				return
			}
			if err := userRepo.Delete(id); err != nil {
				status, msg := userError(err)
				if status == http.StatusInternalServerError {
					svr.Log(err, fmt.Sprintf("unable to delete user %s", id))
				}
				svr.Error(w, status, msg)
				return
			}
			svr.JSON(w, http.StatusNoContent, nil)
		},
	)
}

func ListRolesHandler(svr server.Server, roleRepo roleStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			roles, err := roleRepo.FindAll()
			if err != nil {
				svr.Log(err, "unable to retrieve roles")
				svr.Error(w, http.StatusInternalServerError, "unable to retrieve roles")
				return
			}
			svr.JSON(w, http.StatusOK, roles)
		},
	)
}

func GetRoleHandler(svr server.Server, roleRepo roleStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			ro, err := roleRepo.GetByID(mux.Vars(r)["id"])
			if err != nil {
				status, msg := roleError(err)
				if status == http.StatusInternalServerError {
					svr.Log(err, "unable to retrieve role")
				}
				svr.Error(w, status, msg)
				return
			}
			svr.JSON(w, http.StatusOK, ro)
		},
	)
}

func CreateRoleHandler(svr server.Server, roleRepo roleStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			var rq role.RoleRq
			if err := decodeJSON(r, &rq); err != nil {
				svr.Error(w, http.StatusBadRequest, "request is invalid")
				return
			}
			ro, err := roleRepo.Create(rq)
			if err != nil {
				status, msg := roleError(err)
				if status == http.StatusInternalServerError {
					svr.Log(err, "unable to create role")
				}
				svr.Error(w, status, msg)
				return
			}
			svr.JSON(w, http.StatusCreated, ro)
		},
	)
}

func UpdateRoleHandler(svr server.Server, roleRepo roleStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			var rq role.RoleRq
			if err := decodeJSON(r, &rq); err != nil {
				svr.Error(w, http.StatusBadRequest, "request is invalid")
				return
			}
			ro, err := roleRepo.Update(mux.Vars(r)["id"], rq)
			if err != nil {
				status, msg := roleError(err)
				if status == http.StatusInternalServerError {
					svr.Log(err, "unable to update role")
				}
				svr.Error(w, status, msg)
				return
			}
			svr.JSON(w, http.StatusOK, ro)
		},
	)
}

func DeleteRoleHandler(svr server.Server, roleRepo roleStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			if err := roleRepo.Delete(mux.Vars(r)["id"]); err != nil {
				status, msg := roleError(err)
				if status == http.StatusInternalServerError {
					svr.Log(err, "unable to delete role")
				}
				svr.Error(w, status, msg)
				return
			}
			svr.JSON(w, http.StatusNoContent, nil)
		},
	)
}
