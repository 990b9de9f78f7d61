package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-cafe/job-alerts/internal/application"
	"github.com/golang-cafe/job-alerts/internal/email"
	"github.com/golang-cafe/job-alerts/internal/job"
	"github.com/golang-cafe/job-alerts/internal/middleware"
	"github.com/golang-cafe/job-alerts/internal/server"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type applicationStore interface {
	Create(a *application.Application) error
	FindAll() ([]*application.Application, error)
	FindByJobID(jobID string) ([]*application.Application, error)
	GetByID(jobID, id string) (*application.Application, error)
	UpdateStatus(jobID, id, status string) error
	Delete(jobID, id string) error
}

type emailSender interface {
	Send(ctx context.Context, msg email.Message) error
}

// externalPersister stores an external job the first time somebody applies to it.
type externalPersister interface {
	FindAndPersist(ctx context.Context, id string) (*job.Job, error)
}

func sendConfirmation(ctx context.Context, svr server.Server, sender emailSender, a *application.Application, j *job.Job) error {
	msg, err := application.ConfirmationMessage(svr.GetConfig().AppURL, a, j)
	if err != nil {
		return err
	}
	return sender.Send(ctx, msg)
}

// ApplyToJobHandler does not require authentication. Signed-in users are
// linked to their application and cannot apply twice to the same job.
func ApplyToJobHandler(svr server.Server, jobRepo jobGetter, appRepo applicationStore, sender emailSender, persister externalPersister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := mux.Vars(r)["jobID"]
		var rq application.ApplicationRq
		if err := decodeJSON(r, &rq); err != nil {
			svr.Error(w, http.StatusBadRequest, "request is invalid")
			return
		}
		j, err := jobRepo.GetByID(jobID)
		if errors.Cause(err) == job.ErrNotFound && persister != nil && strings.HasPrefix(jobID, "ext-") {
			j, err = persister.FindAndPersist(r.Context(), jobID)
		}
		if errors.Cause(err) == job.ErrNotFound {
			svr.Error(w, http.StatusNotFound, fmt.Sprintf("job with id %s not found", jobID))
			return
		}
		if err != nil {
			svr.Log(err, "unable to retrieve job to apply to")
			svr.Error(w, http.StatusInternalServerError, "unable to retrieve job")
			return
		}
		userID := currentUserID(svr, r)
		if !j.AllowPublicApply && userID == nil {
			svr.Error(w, http.StatusUnauthorized, "you need to sign in to apply to this job")
			return
		}
		a, err := application.New(j.ID, rq)
		if err != nil {
			svr.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		if !svr.IsEmail(a.Email) {
			svr.Error(w, http.StatusBadRequest, "email is invalid")
			return
		}
		a.UserID = userID
		err = appRepo.Create(a)
		if errors.Cause(err) == application.ErrDuplicate {
			svr.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			svr.Log(err, "unable to save job application")
			svr.Error(w, http.StatusInternalServerError, "unable to save job application")
			return
		}
		svr.JSON(w, http.StatusCreated, a)
		go func() {
			defer func() {
				if rec := recover(); rec != nil {
					svr.Log(fmt.Errorf("%v", rec), "panic while sending application confirmation")
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), svr.GetConfig().NotificationTimeout)
			defer cancel()
			if err := sendConfirmation(ctx, svr, sender, a, j); err != nil {
				svr.Log(err, fmt.Sprintf("failed to send confirmation email for application %s", a.ID))
			}
		}()
	}
}

func ListApplicationsHandler(svr server.Server, appRepo applicationStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			apps, err := appRepo.FindAll()
			if err != nil {
				svr.Log(err, "unable to retrieve job applications")
				svr.Error(w, http.StatusInternalServerError, "unable to retrieve job applications")
				return
			}
			svr.JSON(w, http.StatusOK, apps)
		},
	)
}

func ListJobApplicationsHandler(svr server.Server, appRepo applicationStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			apps, err := appRepo.FindByJobID(mux.Vars(r)["jobID"])
			if err != nil {
				svr.Log(err, "unable to retrieve applications for job")
				svr.Error(w, http.StatusInternalServerError, "unable to retrieve job applications")
				return
			}
			svr.JSON(w, http.StatusOK, apps)
		},
	)
}

func GetJobApplicationHandler(svr server.Server, appRepo applicationStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			vars := mux.Vars(r)
			a, err := appRepo.GetByID(vars["jobID"], vars["id"])
			if errors.Cause(err) == application.ErrNotFound {
				svr.Error(w, http.StatusNotFound, fmt.Sprintf("job application %s not found", vars["id"]))
				return
			}
			if err != nil {
				svr.Log(err, "unable to retrieve job application")
				svr.Error(w, http.StatusInternalServerError, "unable to retrieve job application")
				return
			}
			svr.JSON(w, http.StatusOK, a)
		},
	)
}

func UpdateApplicationStatusHandler(svr server.Server, appRepo applicationStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			vars := mux.Vars(r)
			rq := &struct {
				Status string `json:"status"`
			}{}
			if err := decodeJSON(r, rq); err != nil {
				svr.Error(w, http.StatusBadRequest, "request is invalid")
				return
			}
			status := strings.ToLower(strings.TrimSpace(rq.Status))
			if !application.IsValidStatus(status) {
				svr.Error(w, http.StatusBadRequest, fmt.Sprintf("status must be one of %s", strings.Join(application.Statuses, ", ")))
				return
			}
			err := appRepo.UpdateStatus(vars["jobID"], vars["id"], status)
			if errors.Cause(err) == application.ErrNotFound {
				svr.Error(w, http.StatusNotFound, fmt.Sprintf("job application %s not found", vars["id"]))
				return
			}
			if err != nil {
				svr.Log(err, "unable to update job application status")
				svr.Error(w, http.StatusInternalServerError, "unable to update job application")
				return
			}
			a, err := appRepo.GetByID(vars["jobID"], vars["id"])
			if err != nil {
				svr.Log(err, "unable to retrieve job application")
				svr.Error(w, http.StatusInternalServerError, "unable to retrieve job application")
				return
			}
			svr.JSON(w, http.StatusOK, a)
		},
	)
}

func DeleteJobApplicationHandler(svr server.Server, appRepo applicationStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			vars := mux.Vars(r)
			err := appRepo.Delete(vars["jobID"], vars["id"])
			if errors.Cause(err) == application.ErrNotFound {
				svr.Error(w, http.StatusNotFound, fmt.Sprintf("job application %s not found", vars["id"]))
				return
			}
			if err != nil {
				svr.Log(err, "unable to delete job application")
				svr.Error(w, http.StatusInternalServerError, "unable to delete job application")
				return
			}
			svr.JSON(w, http.StatusNoContent, nil)
		},
	)
}

// ResendApplicationNotificationHandler sends the confirmation email again and
// waits for the outcome.
func ResendApplicationNotificationHandler(svr server.Server, jobRepo jobGetter, appRepo applicationStore, sender emailSender) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			vars := mux.Vars(r)
			a, err := appRepo.GetByID(vars["jobID"], vars["id"])
			if errors.Cause(err) == application.ErrNotFound {
				svr.Error(w, http.StatusNotFound, fmt.Sprintf("job application %s not found", vars["id"]))
				return
			}
			if err != nil {
				svr.Log(err, "unable to retrieve job application")
				svr.Error(w, http.StatusInternalServerError, "unable to retrieve job application")
				return
			}
			j, err := jobRepo.GetByID(a.JobID)
			if errors.Cause(err) == job.ErrNotFound {
				svr.Error(w, http.StatusNotFound, fmt.Sprintf("job with id %s not found", a.JobID))
				return
			}
			if err != nil {
				svr.Log(err, "unable to retrieve job")
				svr.Error(w, http.StatusInternalServerError, "unable to retrieve job")
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), svr.GetConfig().NotificationTimeout)
			defer cancel()
			if err := sendConfirmation(ctx, svr, sender, a, j); err != nil {
				svr.Log(err, fmt.Sprintf("unable to resend confirmation for application %s", a.ID))
				svr.Error(w, http.StatusBadGateway, "unable to send notification email")
				return
			}
			svr.JSON(w, http.StatusOK, map[string]string{"status": "sent"})
		},
	)
}
