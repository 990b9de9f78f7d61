package alert

import (
	"strings"

	"github.com/golang-cafe/job-alerts/internal/job"
	"github.com/pkg/errors"
)

// New builds an active alert from a subscribe request.
func New(rq AlertRq) (*Alert, error) {
	if rq.Email == nil || strings.TrimSpace(*rq.Email) == "" {
		return nil, errors.New("email is required")
	}
	a := &Alert{IsActive: true}
	a.Apply(rq)
	return a, nil
}

// Apply copies the fields present in rq onto a. Strings that are blank after
// trimming clear the corresponding filter.
func (a *Alert) Apply(rq AlertRq) {
	if rq.Email != nil {
		a.Email = strings.ToLower(strings.TrimSpace(*rq.Email))
	}
	if rq.SearchPattern != nil {
		a.SearchPattern = optional(*rq.SearchPattern)
	}
	if rq.JobType != nil {
		a.JobType = optional(strings.ToLower(*rq.JobType))
	}
	if rq.Level != nil {
		a.Level = optional(strings.ToLower(*rq.Level))
	}
	if rq.Location != nil {
		a.Location = optional(*rq.Location)
	}
	if rq.SalaryMin != nil {
		a.SalaryMin = job.ParseAmount(rq.SalaryMin)
	}
	if rq.SalaryMax != nil {
		a.SalaryMax = job.ParseAmount(rq.SalaryMax)
	}
	if rq.IsActive != nil {
		a.IsActive = *rq.IsActive
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
