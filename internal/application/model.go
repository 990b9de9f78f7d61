package application

import (
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
)

const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"

	maxResumeURLLength = 500
)

var Statuses = []string{StatusPending, StatusReviewed, StatusAccepted, StatusRejected}

type Application struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id"`
	UserID      *string   `json:"user_id,omitempty"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	CoverLetter string    `json:"cover_letter,omitempty"`
	ResumeURL   string    `json:"resume_url,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ApplicationRq struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CoverLetter string `json:"cover_letter"`
	ResumeURL   string `json:"resume_url"`
}

var policy = bluemonday.StrictPolicy()

// New builds a pending application for jobID. Email format is checked by the caller.
func New(jobID string, rq ApplicationRq) (*Application, error) {
	a := &Application{
		JobID:       jobID,
		Email:       strings.ToLower(strings.TrimSpace(rq.Email)),
		Phone:       strings.TrimSpace(policy.Sanitize(rq.Phone)),
		CoverLetter: strings.TrimSpace(policy.Sanitize(rq.CoverLetter)),
		ResumeURL:   strings.TrimSpace(rq.ResumeURL),
		Status:      StatusPending,
	}
	if a.Email == "" {
		return nil, errors.New("email is required")
	}
	if len(a.ResumeURL) > maxResumeURLLength {
		return nil, errors.Errorf("resume_url cannot be longer than %d characters", maxResumeURLLength)
	}
	if a.ResumeURL != "" && !strings.HasPrefix(a.ResumeURL, "http://") && !strings.HasPrefix(a.ResumeURL, "https://") {
		return nil, errors.New("resume_url must be an http or https url")
	}
	return a, nil
}

func IsValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}
