package external

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/golang-cafe/job-alerts/internal/job"
	"github.com/pkg/errors"
)

const (
	LegacySourceKey  = "local-service"
	LegacySourceName = "Legacy Job Service"
	legacyCompany    = "External Partner"
)

// LegacySource is the in-house jobs service. It publishes
// {"<Country>": [[title, salary, "<skills><skill>Go</skill>...</skills>"], ...]}.
func LegacySource(url string) Source {
	return Source{
		Key:   LegacySourceKey,
		Name:  LegacySourceName,
		URL:   url,
		Parse: ParseLegacy,
	}
}

// ParseLegacy decodes a legacy payload keeping the order countries appear in.
// Entries that are not [title, salary, skills] tuples are skipped.
func ParseLegacy(body []byte) ([]*job.Job, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("expected a json object keyed by country")
	}
	jobs := []*job.Job{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		country, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			continue
		}
		for _, entry := range entries {
			j, ok := legacyJob(country, entry)
			if ok {
				jobs = append(jobs, j)
			}
		}
	}
	return jobs, nil
}

func legacyJob(country string, entry json.RawMessage) (*job.Job, bool) {
	dec := json.NewDecoder(bytes.NewReader(entry))
	dec.UseNumber()
	var fields []interface{}
	if err := dec.Decode(&fields); err != nil || len(fields) == 0 {
		return nil, false
	}
	title, _ := fields[0].(string)
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, false
	}
	var salary *float64
	if len(fields) > 1 {
		salary = job.ParseAmount(fields[1])
	}
	var skills []string
	if len(fields) > 2 {
		if xml, ok := fields[2].(string); ok {
			skills = ParseSkills(xml)
		}
	}
	location := country
	if location == "" {
		location = "Unknown"
	}
	joined := strings.Join(skills, ", ")
	return &job.Job{
		Title:            title,
		Description:      fmt.Sprintf("Job opportunity in %s. Skills: %s", country, joined),
		Requirements:     joined,
		Company:          legacyCompany,
		Location:         location,
		JobType:          job.TypeFullTime,
		Level:            InferLevel(title),
		SalaryMin:        salary,
		SalaryMax:        salary,
		Currency:         job.DefaultCurrency,
		AllowPublicApply: true,
	}, true
}

// ParseSkills extracts the text of every <skill> element.
func ParseSkills(xml string) []string {
	skills := []string{}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(xml))
	if err != nil {
		return skills
	}
	doc.Find("skill").Each(func(i int, s *goquery.Selection) {
		if v := strings.TrimSpace(s.Text()); v != "" {
			skills = append(skills, v)
		}
	})
	return skills
}

// InferLevel guesses the seniority from words in the title.
func InferLevel(title string) string {
	for _, w := range strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		switch w {
		case "sr", "senior":
			return job.LevelSenior
		case "lead", "principal":
			return job.LevelLead
		case "manager", "head":
			return job.LevelManager
		}
	}
	return job.LevelJunior
}
