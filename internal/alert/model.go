package alert

import "time"

// Alert is a subscriber's saved search. Nil fields impose no constraint.
type Alert struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	SearchPattern *string   `json:"search_pattern,omitempty"`
	JobType       *string   `json:"job_type,omitempty"`
	Level         *string   `json:"level,omitempty"`
	Location      *string   `json:"location,omitempty"`
	SalaryMin     *float64  `json:"salary_min,omitempty"`
	SalaryMax     *float64  `json:"salary_max,omitempty"`
	IsActive      bool      `json:"is_active"`
	UserID        *string   `json:"user_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AlertRq is the subscribe/update payload. Salary values are decoded loosely
// and anything that does not parse as a number is treated as unset.
type AlertRq struct {
	Email         *string     `json:"email"`
	SearchPattern *string     `json:"search_pattern"`
	JobType       *string     `json:"job_type"`
	Level         *string     `json:"level"`
	Location      *string     `json:"location"`
	SalaryMin     interface{} `json:"salary_min"`
	SalaryMax     interface{} `json:"salary_max"`
	IsActive      *bool       `json:"is_active"`
}

// Result summarises one dispatch run.
type Result struct {
	Notified int `json:"notified"`
	Failed   int `json:"failed"`
}
