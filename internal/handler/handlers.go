package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/golang-cafe/job-alerts/internal/job"
	"github.com/golang-cafe/job-alerts/internal/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxPageSize = 100

type jobGetter interface {
	GetByID(id string) (*job.Job, error)
}

// jobNotifier is the job-creation trigger for the alert dispatcher.
type jobNotifier interface {
	NotifyAsync(j *job.Job)
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

// pagination reads page and limit from the query string. Missing or invalid
// values fall back to the first page and the configured page size.
func pagination(r *http.Request, defaultLimit int) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// currentUserID returns the id of the signed-in user, if any.
func currentUserID(svr server.Server, r *http.Request) *string {
	claims, ok := svr.CurrentUser(r)
	if !ok || claims.UserID == "" {
		return nil
	}
	id := claims.UserID
	return &id
}

func HealthCheckHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svr.Conn.Ping(); err != nil {
			svr.Log(err, "database ping failed")
			svr.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
