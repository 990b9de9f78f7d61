package job

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
)

var textPolicy = bluemonday.StrictPolicy()

// ParseAmount turns an untrusted salary value into an optional amount.
// Numbers and numeric strings are accepted; anything else, including empty
// strings, null and non-finite numbers, is reported as absent.
func ParseAmount(v interface{}) *float64 {
	var f float64
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(val, ",", ""))
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func clean(s string) string {
	return strings.TrimSpace(textPolicy.Sanitize(s))
}

// New validates rq and builds a job with defaults applied.
func New(rq JobRq) (*Job, error) {
	j := &Job{
		JobType:          TypeFullTime,
		Level:            LevelJunior,
		AllowPublicApply: true,
	}
	if err := j.Apply(rq); err != nil {
		return nil, err
	}
	if j.Title == "" {
		return nil, errors.New("title is required")
	}
	if j.Company == "" {
		return nil, errors.New("company is required")
	}
	if j.Location == "" {
		return nil, errors.New("location is required")
	}
	return j, nil
}

// Apply copies every field set in rq onto j.
func (j *Job) Apply(rq JobRq) error {
	if v := clean(rq.Title); v != "" {
		j.Title = v
	}
	if v := clean(rq.Description); v != "" {
		j.Description = v
	}
	if v := clean(rq.Requirements); v != "" {
		j.Requirements = v
	}
	if v := clean(rq.Company); v != "" {
		j.Company = v
	}
	if v := clean(rq.Location); v != "" {
		j.Location = v
	}
	if v := strings.ToLower(strings.TrimSpace(rq.JobType)); v != "" {
		if !IsValidType(v) {
			return errors.Errorf("invalid job type %q", rq.JobType)
		}
		j.JobType = v
	}
	if v := strings.ToLower(strings.TrimSpace(rq.Level)); v != "" {
		if !IsValidLevel(v) {
			return errors.Errorf("invalid level %q", rq.Level)
		}
		j.Level = v
	}
	if v := ParseAmount(rq.SalaryMin); v != nil {
		j.SalaryMin = v
	}
	if v := ParseAmount(rq.SalaryMax); v != nil {
		j.SalaryMax = v
	}
	if j.SalaryMin != nil && j.SalaryMax != nil && *j.SalaryMin > *j.SalaryMax {
		return errors.New("salary_min cannot be greater than salary_max")
	}
	if v := strings.ToUpper(strings.TrimSpace(rq.Currency)); v != "" {
		j.Currency = v
	}
	if v := clean(rq.Benefits); v != "" {
		j.Benefits = v
	}
	if rq.ExpirationDate != nil {
		j.ExpirationDate = rq.ExpirationDate
	}
	if rq.AllowPublicApply != nil {
		j.AllowPublicApply = *rq.AllowPublicApply
	}
	return nil
}
