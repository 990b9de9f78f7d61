package external

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-cafe/job-alerts/internal/job"
)

type genericJob struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Link        string `json:"link"`
}

// GenericSource reads a JSON array of {title, description, company, location,
// type, url|link} objects. It backs sources registered at runtime.
func GenericSource(key, name, url string) Source {
	return Source{
		Key:   key,
		Name:  name,
		URL:   url,
		Parse: ParseGeneric,
	}
}

func ParseGeneric(body []byte) ([]*job.Job, error) {
	var entries []genericJob
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}
	jobs := make([]*job.Job, 0, len(entries))
	for _, e := range entries {
		title := strings.TrimSpace(e.Title)
		if title == "" {
			continue
		}
		description := strings.TrimSpace(e.Description)
		link := e.URL
		if link == "" {
			link = e.Link
		}
		if link != "" {
			description = strings.TrimSpace(fmt.Sprintf("%s\n\nApply at %s", description, link))
		}
		location := strings.TrimSpace(e.Location)
		if location == "" {
			location = "Unknown"
		}
		jobs = append(jobs, &job.Job{
			Title:            title,
			Description:      description,
			Company:          strings.TrimSpace(e.Company),
			Location:         location,
			JobType:          MapJobType(e.Type),
			Level:            InferLevel(title),
			Currency:         job.DefaultCurrency,
			AllowPublicApply: true,
		})
	}
	return jobs, nil
}

var jobTypeAliases = map[string]string{
	"full-time":  job.TypeFullTime,
	"full_time":  job.TypeFullTime,
	"fulltime":   job.TypeFullTime,
	"part-time":  job.TypePartTime,
	"part_time":  job.TypePartTime,
	"parttime":   job.TypePartTime,
	"contract":   job.TypeContract,
	"temporary":  job.TypeTemporary,
	"internship": job.TypeInternship,
	"freelance":  job.TypeFreelance,
}

// MapJobType normalises the employment type spellings used by job feeds,
// defaulting to full-time.
func MapJobType(t string) string {
	if v, ok := jobTypeAliases[strings.ToLower(strings.TrimSpace(t))]; ok {
		return v
	}
	return job.TypeFullTime
}
