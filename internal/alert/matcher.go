package alert

import (
	"math"
	"regexp"
	"strings"

	"github.com/golang-cafe/job-alerts/internal/job"
)

var separatorRe = regexp.MustCompile(`[\s,]+`)

// Tokenize lowercases a search pattern and splits it on runs of whitespace
// and commas, dropping empty tokens.
func Tokenize(pattern string) []string {
	tokens := []string{}
	for _, t := range separatorRe.Split(strings.ToLower(pattern), -1) {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// IsMatch reports whether j satisfies a. A search pattern with at least one
// token decides the result on its own: every token must appear in the job's
// title, description or company. Otherwise the structured filters apply and
// each unset filter, or a filter the job has no data for, passes.
func IsMatch(a *Alert, j *job.Job) bool {
	if a == nil || j == nil || !a.IsActive {
		return false
	}

	if a.SearchPattern != nil {
		if tokens := Tokenize(*a.SearchPattern); len(tokens) > 0 {
			corpus := strings.ToLower(j.Title + " " + j.Description + " " + j.Company)
			for _, t := range tokens {
				if !strings.Contains(corpus, t) {
					return false
				}
			}
			return true
		}
		// a pattern made only of separators behaves as if it was never set
	}

	if loc, ok := filterValue(a.Location); ok {
		if !strings.Contains(strings.ToLower(j.Location), loc) {
			return false
		}
	}
	if jobType, ok := filterValue(a.JobType); ok {
		if strings.ToLower(strings.TrimSpace(j.JobType)) != jobType {
			return false
		}
	}
	if level, ok := filterValue(a.Level); ok {
		if strings.ToLower(strings.TrimSpace(j.Level)) != level {
			return false
		}
	}
	if alertMin, ok := amount(a.SalaryMin); ok {
		if jobMax, ok := amount(j.SalaryMax); ok && jobMax < alertMin {
			return false
		}
	}
	if alertMax, ok := amount(a.SalaryMax); ok {
		if jobMin, ok := amount(j.SalaryMin); ok && jobMin > alertMax {
			return false
		}
	}
	return true
}

func filterValue(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	s := strings.ToLower(strings.TrimSpace(*v))
	return s, s != ""
}

func amount(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}
