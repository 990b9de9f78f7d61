package job

import (
	"strings"
	"time"
)

const (
	TypeFullTime   = "full-time"
	TypePartTime   = "part-time"
	TypeContract   = "contract"
	TypeTemporary  = "temporary"
	TypeInternship = "internship"
	TypeFreelance  = "freelance"

	LevelJunior    = "junior"
	LevelSenior    = "senior"
	LevelLead      = "lead"
	LevelManager   = "manager"
	LevelExecutive = "executive"

	DefaultCurrency = "USD"
)

var (
	Types  = []string{TypeFullTime, TypePartTime, TypeContract, TypeTemporary, TypeInternship, TypeFreelance}
	Levels = []string{LevelJunior, LevelSenior, LevelLead, LevelManager, LevelExecutive}
)

// Job is a posting as seen by the matcher, the notification channel and the API.
// Empty strings and nil pointers mean the value is not known.
type Job struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Requirements     string     `json:"requirements,omitempty"`
	Company          string     `json:"company"`
	Location         string     `json:"location"`
	JobType          string     `json:"job_type"`
	Level            string     `json:"level"`
	SalaryMin        *float64   `json:"salary_min,omitempty"`
	SalaryMax        *float64   `json:"salary_max,omitempty"`
	Currency         string     `json:"currency,omitempty"`
	Benefits         string     `json:"benefits,omitempty"`
	ExpirationDate   *time.Time `json:"expiration_date,omitempty"`
	AllowPublicApply bool       `json:"allow_public_apply"`
	PostedByID       *string    `json:"posted_by_id,omitempty"`
	ExternalID       *string    `json:"external_id,omitempty"`
	IsExternal       bool       `json:"is_external"`
	Slug             string     `json:"slug"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// JobRq is the create/update payload. Salary values are decoded loosely so
// "45000", 45000 and "" are all accepted.
type JobRq struct {
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Requirements     string      `json:"requirements"`
	Company          string      `json:"company"`
	Location         string      `json:"location"`
	JobType          string      `json:"job_type"`
	Level            string      `json:"level"`
	SalaryMin        interface{} `json:"salary_min"`
	SalaryMax        interface{} `json:"salary_max"`
	Currency         string      `json:"currency"`
	Benefits         string      `json:"benefits"`
	ExpirationDate   *time.Time  `json:"expiration_date"`
	AllowPublicApply *bool       `json:"allow_public_apply"`
}

// Query holds the listing filters accepted by Repository.List.
type Query struct {
	Search  string
	JobType string
	Level   string
	Sort    string
	Page    int
	Limit   int
}

var sortColumns = map[string]string{
	"created_at": "created_at",
	"title":      "title",
	"salary_min": "salary_min",
}

// OrderBy translates a "field:direction" sort parameter into a safe ORDER BY
// clause, falling back to newest first.
func (q Query) OrderBy() string {
	parts := strings.SplitN(q.Sort, ":", 2)
	col, ok := sortColumns[strings.TrimSpace(parts[0])]
	if !ok {
		return "created_at DESC"
	}
	dir := "DESC"
	if len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[1]), "asc") {
		dir = "ASC"
	}
	return col + " " + dir
}

func IsValidType(t string) bool {
	return contains(Types, t)
}

func IsValidLevel(l string) bool {
	return contains(Levels, l)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
