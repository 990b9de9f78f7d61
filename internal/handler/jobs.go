package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-cafe/job-alerts/internal/alert"
	"github.com/golang-cafe/job-alerts/internal/job"
	"github.com/golang-cafe/job-alerts/internal/middleware"
	"github.com/golang-cafe/job-alerts/internal/server"
	"github.com/gorilla/feeds"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

const (
	rssFeedSize      = 20
	maxImportBytes   = 5 << 20
	importFormField  = "file"
	exportFileName   = "jobs.csv"
	templateFileName = "jobs-template.csv"
)

type jobStore interface {
	jobGetter
	Save(j *job.Job) error
	List(q job.Query) ([]*job.Job, int, error)
	Update(j *job.Job) error
	Delete(id string) error
	All() ([]*job.Job, error)
	Latest(n int) ([]*job.Job, error)
}

// externalFinder resolves ids of jobs that are published by an external
// source but not stored yet.
type externalFinder interface {
	Find(ctx context.Context, id string) (*job.Job, error)
}

type jobsPage struct {
	Data  []*job.Job `json:"data"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

func ListJobsHandler(svr server.Server, jobRepo jobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit := pagination(r, svr.GetConfig().JobsPerPage)
		params := r.URL.Query()
		jobType := params.Get("job_type")
		if jobType == "" {
			jobType = params.Get("type")
		}
		q := job.Query{
			Search:  params.Get("search"),
			JobType: strings.ToLower(strings.TrimSpace(jobType)),
			Level:   strings.ToLower(strings.TrimSpace(params.Get("level"))),
			Sort:    params.Get("sort"),
			Page:    page,
			Limit:   limit,
		}
		jobs, total, err := jobRepo.List(q)
		if err != nil {
			svr.Log(err, "unable to list jobs")
			svr.Error(w, http.StatusInternalServerError, "unable to list jobs")
			return
		}
		svr.JSON(w, http.StatusOK, jobsPage{Data: jobs, Total: total, Page: page, Limit: limit})
	}
}

func GetJobHandler(svr server.Server, jobRepo jobGetter, finder externalFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		j, err := jobRepo.GetByID(id)
		if errors.Cause(err) == job.ErrNotFound && finder != nil {
			j, err = finder.Find(r.Context(), id)
		}
		if errors.Cause(err) == job.ErrNotFound {
			svr.Error(w, http.StatusNotFound, fmt.Sprintf("job with id %s not found", id))
			return
		}
		if err != nil {
			svr.Log(err, "unable to retrieve job")
			svr.Error(w, http.StatusInternalServerError, "unable to retrieve job")
			return
		}
		svr.JSON(w, http.StatusOK, j)
	}
}

// CreateJobHandler stores a job and then tells the alert dispatcher about it.
// The response does not wait for any notification.
func CreateJobHandler(svr server.Server, jobRepo jobStore, notifier jobNotifier) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			var rq job.JobRq
			if err := decodeJSON(r, &rq); err != nil {
				svr.Error(w, http.StatusBadRequest, "request is invalid")
				return
			}
			j, err := job.New(rq)
			if err != nil {
				svr.Error(w, http.StatusBadRequest, err.Error())
				return
			}
			j.PostedByID = currentUserID(svr, r)
			if err := jobRepo.Save(j); err != nil {
				svr.Log(err, "unable to save job")
				svr.Error(w, http.StatusInternalServerError, "unable to save job")
				return
			}
			if err := svr.CacheDelete(server.CacheKeyRSSFeed); err != nil {
				svr.Log(err, "unable to invalidate rss feed cache")
			}
			svr.JSON(w, http.StatusCreated, j)
			notifier.NotifyAsync(j)
		},
	)
}

func UpdateJobHandler(svr server.Server, jobRepo jobStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			id := mux.Vars(r)["id"]
			var rq job.JobRq
			if err := decodeJSON(r, &rq); err != nil {
				svr.Error(w, http.StatusBadRequest, "request is invalid")
				return
			}
			j, err := jobRepo.GetByID(id)
			if errors.Cause(err) == job.ErrNotFound {
				svr.Error(w, http.StatusNotFound, fmt.Sprintf("job with id %s not found", id))
				return
			}
			if err != nil {
				svr.Log(err, "unable to retrieve job")
				svr.Error(w, http.StatusInternalServerError, "unable to retrieve job")
				return
			}
			if err := j.Apply(rq); err != nil {
				svr.Error(w, http.StatusBadRequest, err.Error())
				return
			}
			if err := jobRepo.Update(j); err != nil {
				svr.Log(err, "unable to update job")
				svr.Error(w, http.StatusInternalServerError, "unable to update job")
				return
			}
			if err := svr.CacheDelete(server.CacheKeyRSSFeed); err != nil {
				svr.Log(err, "unable to invalidate rss feed cache")
			}
			svr.JSON(w, http.StatusOK, j)
		},
	)
}

func DeleteJobHandler(svr server.Server, jobRepo jobStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			id := mux.Vars(r)["id"]
			err := jobRepo.Delete(id)
			if errors.Cause(err) == job.ErrNotFound {
				svr.Error(w, http.StatusNotFound, fmt.Sprintf("job with id %s not found", id))
				return
			}
			if err != nil {
				svr.Log(err, "unable to delete job")
				svr.Error(w, http.StatusInternalServerError, "unable to delete job")
				return
			}
			if err := svr.CacheDelete(server.CacheKeyRSSFeed); err != nil {
				svr.Log(err, "unable to invalidate rss feed cache")
			}
			svr.JSON(w, http.StatusNoContent, nil)
		},
	)
}

func ExportJobsCSVHandler(svr server.Server, jobRepo jobStore) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			jobs, err := jobRepo.All()
			if err != nil {
				svr.Log(err, "unable to retrieve jobs for csv export")
				svr.Error(w, http.StatusInternalServerError, "unable to export jobs")
				return
			}
			var buf bytes.Buffer
			if err := job.WriteCSV(&buf, jobs); err != nil {
				svr.Log(err, "unable to write jobs csv")
				svr.Error(w, http.StatusInternalServerError, "unable to export jobs")
				return
			}
			svr.CSV(w, http.StatusOK, exportFileName, buf.Bytes())
		},
	)
}

func JobsTemplateCSVHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := job.WriteTemplateCSV(&buf); err != nil {
			svr.Log(err, "unable to write jobs csv template")
			svr.Error(w, http.StatusInternalServerError, "unable to generate template")
			return
		}
		svr.CSV(w, http.StatusOK, templateFileName, buf.Bytes())
	}
}

type importResult struct {
	Created int            `json:"created"`
	Failed  int            `json:"failed"`
	Errors  []job.RowError `json:"errors"`
}

// ImportJobsCSVHandler accepts either a multipart upload in the "file" field
// or a raw CSV request body. Every stored job goes through the same
// notification trigger as a job created through the API.
func ImportJobsCSVHandler(svr server.Server, jobRepo jobStore, notifier jobNotifier) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
			var body io.Reader = r.Body
			if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				f, _, err := r.FormFile(importFormField)
				if err != nil {
					svr.Error(w, http.StatusBadRequest, "csv file is required")
					return
				}
				defer f.Close()
				body = f
			}
			jobs, rowErrs, err := job.ReadCSV(body)
			if err != nil {
				svr.Error(w, http.StatusBadRequest, err.Error())
				return
			}
			res := importResult{Errors: rowErrs}
			postedBy := currentUserID(svr, r)
			for i, j := range jobs {
				j.PostedByID = postedBy
				if err := jobRepo.Save(j); err != nil {
					svr.Log(err, "unable to save imported job")
					res.Errors = append(res.Errors, job.RowError{Err: fmt.Sprintf("job %d (%s): unable to save", i+1, j.Title)})
					continue
				}
				res.Created++
				notifier.NotifyAsync(j)
			}
			res.Failed = len(res.Errors)
			if res.Created > 0 {
				if err := svr.CacheDelete(server.CacheKeyRSSFeed); err != nil {
					svr.Log(err, "unable to invalidate rss feed cache")
				}
			}
			svr.JSON(w, http.StatusOK, res)
		},
	)
}

func ServeRSSFeed(svr server.Server, jobRepo jobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cached, ok := svr.CacheGet(server.CacheKeyRSSFeed); ok {
			svr.XML(w, http.StatusOK, cached)
			return
		}
		jobs, err := jobRepo.Latest(rssFeedSize)
		if err != nil {
			svr.Log(err, "unable to retrieve jobs for RSS Feed")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		appURL := svr.GetConfig().AppURL
		renderer := alert.NewRenderer(appURL)
		feed := &feeds.Feed{
			Title:       "Latest Jobs",
			Link:        &feeds.Link{Href: appURL},
			Description: "Latest job openings",
			Created:     time.Now(),
		}
		for _, j := range jobs {
			description := j.Description
			if salary := alert.SalaryRange(j); salary != "" {
				description += "\n\nSalary Range: " + salary
			}
			feed.Items = append(feed.Items, &feeds.Item{
				Id:          j.ID,
				Title:       fmt.Sprintf("%s with %s - %s", j.Title, j.Company, j.Location),
				Link:        &feeds.Link{Href: renderer.JobURL(j)},
				Description: description,
				Created:     j.CreatedAt,
			})
		}
		rssFeed, err := feed.ToRss()
		if err != nil {
			svr.Log(err, "unable to convert rss feed to xml")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		if err := svr.CacheSet(server.CacheKeyRSSFeed, []byte(rssFeed)); err != nil {
			svr.Log(err, "unable to cache rss feed")
		}
		svr.XML(w, http.StatusOK, []byte(rssFeed))
	}
}
