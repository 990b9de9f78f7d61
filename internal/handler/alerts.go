package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-cafe/job-alerts/internal/alert"
	"github.com/golang-cafe/job-alerts/internal/job"
	"github.com/golang-cafe/job-alerts/internal/middleware"
	"github.com/golang-cafe/job-alerts/internal/server"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type alertGetter interface {
	GetByID(id string) (*alert.Alert, error)
}

type alertStore interface {
	alertGetter
	FindAll() ([]*alert.Alert, error)
	Create(a *alert.Alert) error
	Update(a *alert.Alert) error
	SetActive(id string, active bool) error
	Delete(id string) error
}

type alertResender interface {
	Resend(ctx context.Context, a *alert.Alert, j *job.Job) error
}

func ListJobAlertsHandler(svr server.Server, alertRepo alertStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			alerts, err := alertRepo.FindAll()
			if err != nil {
				svr.Log(err, "unable to retrieve job alerts")
				svr.Error(w, http.StatusInternalServerError, "unable to retrieve job alerts")
				return
			}
			svr.JSON(w, http.StatusOK, alerts)
		},
	)
}

func GetJobAlertHandler(svr server.Server, alertRepo alertStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		a, err := alertRepo.GetByID(id)
		if errors.Cause(err) == alert.ErrNotFound {
			svr.Error(w, http.StatusNotFound, fmt.Sprintf("job alert %s not found", id))
			return
		}
		if err != nil {
			svr.Log(err, "unable to retrieve job alert")
			svr.Error(w, http.StatusInternalServerError, "unable to retrieve job alert")
			return
		}
		svr.JSON(w, http.StatusOK, a)
	}
}

// CreateJobAlertHandler subscribes an email address to new jobs. Signing in
// is optional; when a user is signed in the alert is linked to them.
func CreateJobAlertHandler(svr server.Server, alertRepo alertStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rq alert.AlertRq
		if err := decodeJSON(r, &rq); err != nil {
			svr.Error(w, http.StatusBadRequest, "request is invalid")
			return
		}
		a, err := alert.New(rq)
		if err != nil {
			svr.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		if !svr.IsEmail(a.Email) {
			svr.Error(w, http.StatusBadRequest, "email is invalid")
			return
		}
		a.UserID = currentUserID(svr, r)
		if err := alertRepo.Create(a); err != nil {
			svr.Log(err, "unable to create job alert")
			svr.Error(w, http.StatusInternalServerError, "unable to create job alert")
			return
		}
		svr.JSON(w, http.StatusCreated, a)
	}
}

func UpdateJobAlertHandler(svr server.Server, alertRepo alertStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		var rq alert.AlertRq
		if err := decodeJSON(r, &rq); err != nil {
			svr.Error(w, http.StatusBadRequest, "request is invalid")
			return
		}
		a, err := alertRepo.GetByID(id)
		if errors.Cause(err) == alert.ErrNotFound {
			svr.Error(w, http.StatusNotFound, fmt.Sprintf("job alert %s not found", id))
			return
		}
		if err != nil {
			svr.Log(err, "unable to retrieve job alert")
			svr.Error(w, http.StatusInternalServerError, "unable to retrieve job alert")
			return
		}
		a.Apply(rq)
		if !svr.IsEmail(a.Email) {
			svr.Error(w, http.StatusBadRequest, "email is invalid")
			return
		}
		if err := alertRepo.Update(a); err != nil {
			svr.Log(err, "unable to update job alert")
			svr.Error(w, http.StatusInternalServerError, "unable to update job alert")
			return
		}
		svr.JSON(w, http.StatusOK, a)
	}
}

func DeleteJobAlertHandler(svr server.Server, alertRepo alertStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		err := alertRepo.Delete(id)
		if errors.Cause(err) == alert.ErrNotFound {
			svr.Error(w, http.StatusNotFound, fmt.Sprintf("job alert %s not found", id))
			return
		}
		if err != nil {
			svr.Log(err, "unable to delete job alert")
			svr.Error(w, http.StatusInternalServerError, "unable to delete job alert")
			return
		}
		svr.JSON(w, http.StatusNoContent, nil)
	}
}

// UnsubscribeJobAlertHandler is the target of the link in every alert email.
// The alert is kept but stops matching.
func UnsubscribeJobAlertHandler(svr server.Server, alertRepo alertStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		err := alertRepo.SetActive(id, false)
		if errors.Cause(err) == alert.ErrNotFound {
			svr.TEXT(w, http.StatusNotFound, "Job alert not found")
			return
		}
		if err != nil {
			svr.Log(err, "unable to unsubscribe job alert")
			svr.TEXT(w, http.StatusInternalServerError, "Something went wrong, please try again later")
			return
		}
		svr.TEXT(w, http.StatusOK, "You have been unsubscribed from this job alert")
	}
}

// ResendJobAlertHandler emails one alert about one job on demand.
func ResendJobAlertHandler(svr server.Server, alertRepo alertGetter, jobRepo jobGetter, resender alertResender) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			vars := mux.Vars(r)
			a, err := alertRepo.GetByID(vars["id"])
			if errors.Cause(err) == alert.ErrNotFound {
				svr.Error(w, http.StatusNotFound, fmt.Sprintf("job alert %s not found", vars["id"]))
				return
			}
			if err != nil {
				svr.Log(err, "unable to retrieve job alert")
				svr.Error(w, http.StatusInternalServerError, "unable to retrieve job alert")
				return
			}
			j, err := jobRepo.GetByID(vars["jobID"])
			if errors.Cause(err) == job.ErrNotFound {
				svr.Error(w, http.StatusNotFound, fmt.Sprintf("job %s not found", vars["jobID"]))
				return
			}
			if err != nil {
				svr.Log(err, "unable to retrieve job")
				svr.Error(w, http.StatusInternalServerError, "unable to retrieve job")
				return
			}
			if err := resender.Resend(r.Context(), a, j); err != nil {
				svr.Log(err, fmt.Sprintf("unable to resend job alert %s for job %s", a.ID, j.ID))
				svr.Error(w, http.StatusBadGateway, "unable to send job alert email")
				return
			}
			svr.JSON(w, http.StatusOK, map[string]string{"status": "sent"})
		},
	)
}
