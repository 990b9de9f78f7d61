package alert

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

var ErrNotFound = errors.New("job alert not found")

const alertColumns = `id, email, search_pattern, job_type, level, location, salary_min, salary_max, is_active, user_id, created_at, updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlert(row rowScanner) (*Alert, error) {
	a := &Alert{}
	var pattern, jobType, level, location, userID sql.NullString
	var salaryMin, salaryMax sql.NullFloat64
	err := row.Scan(
		&a.ID,
		&a.Email,
		&pattern,
		&jobType,
		&level,
		&location,
		&salaryMin,
		&salaryMax,
		&a.IsActive,
		&userID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.SearchPattern = fromNullString(pattern)
	a.JobType = fromNullString(jobType)
	a.Level = fromNullString(level)
	a.Location = fromNullString(location)
	a.UserID = fromNullString(userID)
	if salaryMin.Valid {
		a.SalaryMin = &salaryMin.Float64
	}
	if salaryMax.Valid {
		a.SalaryMax = &salaryMax.Float64
	}
	return a, nil
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func (r *Repository) query(ctx context.Context, stmt string, args ...interface{}) ([]*Alert, error) {
	alerts := []*Alert{}
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return alerts, err
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return alerts, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// FindActive returns every alert that should be evaluated for a new job.
func (r *Repository) FindActive(ctx context.Context) ([]*Alert, error) {
	alerts, err := r.query(ctx, `SELECT `+alertColumns+` FROM job_alert WHERE is_active = TRUE ORDER BY created_at ASC`)
	return alerts, errors.Wrap(err, "unable to load active job alerts")
}

func (r *Repository) FindAll() ([]*Alert, error) {
	alerts, err := r.query(context.Background(), `SELECT `+alertColumns+` FROM job_alert ORDER BY created_at DESC`)
	return alerts, errors.Wrap(err, "unable to load job alerts")
}

func (r *Repository) GetByID(id string) (*Alert, error) {
	a, err := scanAlert(r.db.QueryRow(`SELECT `+alertColumns+` FROM job_alert WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to get job alert %s", id)
	}
	return a, nil
}

func (r *Repository) Create(a *Alert) error {
	id, err := ksuid.NewRandom()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	a.ID = id.String()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err = r.db.Exec(`INSERT INTO job_alert (`+alertColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID,
		a.Email,
		a.SearchPattern,
		a.JobType,
		a.Level,
		a.Location,
		a.SalaryMin,
		a.SalaryMax,
		a.IsActive,
		a.UserID,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return errors.Wrap(err, "unable to create job alert")
}

func (r *Repository) Update(a *Alert) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := r.db.Exec(`UPDATE job_alert SET email = $1, search_pattern = $2, job_type = $3, level = $4, location = $5, salary_min = $6, salary_max = $7, is_active = $8, updated_at = $9 WHERE id = $10`,
		a.Email,
		a.SearchPattern,
		a.JobType,
		a.Level,
		a.Location,
		a.SalaryMin,
		a.SalaryMax,
		a.IsActive,
		a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		return errors.Wrapf(err, "unable to update job alert %s", a.ID)
	}
	return affectedOrNotFound(res)
}

// SetActive toggles an alert without touching its filters, used by unsubscribe links.
func (r *Repository) SetActive(id string, active bool) error {
	res, err := r.db.Exec(`UPDATE job_alert SET is_active = $1, updated_at = $2 WHERE id = $3`, active, time.Now().UTC(), id)
	if err != nil {
		return errors.Wrapf(err, "unable to update job alert %s", id)
	}
	return affectedOrNotFound(res)
}

func (r *Repository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM job_alert WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "unable to delete job alert %s", id)
	}
	return affectedOrNotFound(res)
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
