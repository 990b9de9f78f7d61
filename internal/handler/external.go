package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/golang-cafe/job-alerts/internal/external"
	"github.com/golang-cafe/job-alerts/internal/job"
	"github.com/golang-cafe/job-alerts/internal/middleware"
	"github.com/golang-cafe/job-alerts/internal/server"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

var sourceKeyRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,39}$`)

type externalSyncer interface {
	Registry() *external.Registry
	Preview(ctx context.Context, key string) ([]*job.Job, error)
	Sync(ctx context.Context, key string) (external.SyncResult, error)
}

type lastSyncGetter interface {
	LastExternalSync(sourceKey string) (time.Time, error)
}

type sourceView struct {
	external.Source
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

func ListExternalSourcesHandler(svr server.Server, syncer externalSyncer, syncLog lastSyncGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources := syncer.Registry().Sources()
		out := make([]sourceView, 0, len(sources))
		for _, src := range sources {
			v := sourceView{Source: src}
			at, err := syncLog.LastExternalSync(src.Key)
			if err != nil {
				svr.Log(err, fmt.Sprintf("unable to read last sync time for %s", src.Key))
			}
			if err == nil && !at.IsZero() {
				v.LastSyncedAt = &at
			}
			out = append(out, v)
		}
		svr.JSON(w, http.StatusOK, out)
	}
}

func PreviewExternalJobsHandler(svr server.Server, syncer externalSyncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]
		jobs, err := syncer.Preview(r.Context(), key)
		if errors.Cause(err) == external.ErrUnknownSource {
			svr.Error(w, http.StatusNotFound, fmt.Sprintf("external job source %s not found", key))
			return
		}
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to fetch jobs from external source %s", key))
			svr.Error(w, http.StatusBadGateway, "unable to fetch jobs from external source")
			return
		}
		svr.JSON(w, http.StatusOK, jobs)
	}
}

func SyncExternalSourceHandler(svr server.Server, syncer externalSyncer) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			key := mux.Vars(r)["key"]
			res, err := syncer.Sync(r.Context(), key)
			if errors.Cause(err) == external.ErrUnknownSource {
				svr.Error(w, http.StatusNotFound, fmt.Sprintf("external job source %s not found", key))
				return
			}
			if err != nil {
				svr.Log(err, fmt.Sprintf("unable to sync external source %s", key))
				svr.Error(w, http.StatusBadGateway, fmt.Sprintf("failed to sync jobs from %s", key))
				return
			}
			if res.Synced > 0 {
				if err := svr.CacheDelete(server.CacheKeyRSSFeed); err != nil {
					svr.Log(err, "unable to invalidate rss feed cache")
				}
			}
			svr.JSON(w, http.StatusOK, res)
		},
	)
}

// RegisterExternalSourceHandler adds a feed publishing a JSON array of jobs.
// Registrations live in memory until the next restart.
func RegisterExternalSourceHandler(svr server.Server, syncer externalSyncer) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			rq := &struct {
				Key  string `json:"key"`
				Name string `json:"name"`
				URL  string `json:"url"`
			}{}
			if err := decodeJSON(r, rq); err != nil {
				svr.Error(w, http.StatusBadRequest, "request is invalid")
				return
			}
			key := strings.ToLower(strings.TrimSpace(rq.Key))
			if !sourceKeyRe.MatchString(key) {
				svr.Error(w, http.StatusBadRequest, "key must be 2 to 40 lowercase letters, digits or dashes")
				return
			}
			u, err := url.Parse(strings.TrimSpace(rq.URL))
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				svr.Error(w, http.StatusBadRequest, "url must be an http or https url")
				return
			}
			name := strings.TrimSpace(rq.Name)
			if name == "" {
				name = key
			}
			src := external.GenericSource(key, name, u.String())
			syncer.Registry().Register(src)
			logger := svr.Logger()
			logger.Info().Str("source", key).Msgf("external job source registered: %s", name)
			svr.JSON(w, http.StatusCreated, src)
		},
	)
}
