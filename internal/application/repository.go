package application

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

var (
	ErrNotFound  = errors.New("job application not found")
	ErrDuplicate = errors.New("you have already applied to this job")
)

const applicationColumns = `id, job_id, user_id, email, phone, cover_letter, resume_url, status, created_at, updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*Application, error) {
	a := &Application{}
	var userID, phone, coverLetter, resumeURL sql.NullString
	err := row.Scan(&a.ID, &a.JobID, &userID, &a.Email, &phone, &coverLetter, &resumeURL, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		a.UserID = &userID.String
	}
	a.Phone = phone.String
	a.CoverLetter = coverLetter.String
	a.ResumeURL = resumeURL.String
	return a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create stores a new application. Signed-in users can only apply once per job.
func (r *Repository) Create(a *Application) error {
	if a.UserID != nil {
		var exists bool
		err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM job_application WHERE user_id = $1 AND job_id = $2)`, *a.UserID, a.JobID).Scan(&exists)
		if err != nil {
			return errors.Wrap(err, "unable to check existing applications")
		}
		if exists {
			return ErrDuplicate
		}
	}
	id, err := ksuid.NewRandom()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	a.ID = id.String()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = StatusPending
	}
	_, err = r.db.Exec(`INSERT INTO job_application (`+applicationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID,
		a.JobID,
		a.UserID,
		a.Email,
		nullString(a.Phone),
		nullString(a.CoverLetter),
		nullString(a.ResumeURL),
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return errors.Wrap(err, "unable to save job application")
}

func (r *Repository) list(stmt string, args ...interface{}) ([]*Application, error) {
	apps := []*Application{}
	rows, err := r.db.Query(stmt, args...)
	if err != nil {
		return apps, err
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return apps, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

func (r *Repository) FindAll() ([]*Application, error) {
	return r.list(`SELECT ` + applicationColumns + ` FROM job_application ORDER BY created_at DESC`)
}

func (r *Repository) FindByJobID(jobID string) ([]*Application, error) {
	return r.list(`SELECT `+applicationColumns+` FROM job_application WHERE job_id = $1 ORDER BY created_at DESC`, jobID)
}

func (r *Repository) GetByID(jobID, id string) (*Application, error) {
	a, err := scanApplication(r.db.QueryRow(`SELECT `+applicationColumns+` FROM job_application WHERE id = $1 AND job_id = $2`, id, jobID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to get job application %s", id)
	}
	return a, nil
}

func (r *Repository) UpdateStatus(jobID, id, status string) error {
	res, err := r.db.Exec(`UPDATE job_application SET status = $1, updated_at = $2 WHERE id = $3 AND job_id = $4`, status, time.Now().UTC(), id, jobID)
	if err != nil {
		return errors.Wrapf(err, "unable to update job application %s", id)
	}
	return affectedOrNotFound(res)
}

func (r *Repository) Delete(jobID, id string) error {
	res, err := r.db.Exec(`DELETE FROM job_application WHERE id = $1 AND job_id = $2`, id, jobID)
	if err != nil {
		return errors.Wrapf(err, "unable to delete job application %s", id)
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
