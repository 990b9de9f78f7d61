package job

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

var ErrNotFound = errors.New("job not found")

const jobColumns = `id, title, description, requirements, company, location, job_type, level, salary_min, salary_max, currency, benefits, expiration_date, allow_public_apply, posted_by_id, external_id, is_external, slug, created_at, updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner, prefix ...interface{}) (*Job, error) {
	j := &Job{}
	var requirements, currency, benefits, postedByID, externalID sql.NullString
	var salaryMin, salaryMax sql.NullFloat64
	var expiration sql.NullTime
	dest := append(prefix,
		&j.ID,
		&j.Title,
		&j.Description,
		&requirements,
		&j.Company,
		&j.Location,
		&j.JobType,
		&j.Level,
		&salaryMin,
		&salaryMax,
		&currency,
		&benefits,
		&expiration,
		&j.AllowPublicApply,
		&postedByID,
		&externalID,
		&j.IsExternal,
		&j.Slug,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	j.Requirements = requirements.String
	j.Currency = currency.String
	j.Benefits = benefits.String
	if salaryMin.Valid {
		j.SalaryMin = &salaryMin.Float64
	}
	if salaryMax.Valid {
		j.SalaryMax = &salaryMax.Float64
	}
	if expiration.Valid {
		j.ExpirationDate = &expiration.Time
	}
	if postedByID.Valid {
		j.PostedByID = &postedByID.String
	}
	if externalID.Valid {
		j.ExternalID = &externalID.String
	}
	return j, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func prepareForInsert(j *Job) error {
	id, err := ksuid.NewRandom()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	j.ID = id.String()
	j.Slug = slug.Make(fmt.Sprintf("%s %s %d", j.Title, j.Company, now.Unix()))
	j.CreatedAt = now
	j.UpdatedAt = now
	return nil
}

func insertArgs(j *Job) []interface{} {
	return []interface{}{
		j.ID,
		j.Title,
		j.Description,
		nullString(j.Requirements),
		j.Company,
		j.Location,
		j.JobType,
		j.Level,
		nullFloat(j.SalaryMin),
		nullFloat(j.SalaryMax),
		nullString(j.Currency),
		nullString(j.Benefits),
		j.ExpirationDate,
		j.AllowPublicApply,
		j.PostedByID,
		j.ExternalID,
		j.IsExternal,
		j.Slug,
		j.CreatedAt,
		j.UpdatedAt,
	}
}

// Save assigns id, slug and timestamps to j and inserts it.
func (r *Repository) Save(j *Job) error {
	if err := prepareForInsert(j); err != nil {
		return err
	}
	_, err := r.db.Exec(`INSERT INTO job (`+jobColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`, insertArgs(j)...)
	return errors.Wrap(err, "unable to save job")
}

// SaveExternal inserts an ingested job unless one with the same external id
// already exists. It reports whether a new row was written.
func (r *Repository) SaveExternal(j *Job) (bool, error) {
	if j.ExternalID == nil || *j.ExternalID == "" {
		return false, errors.New("external job requires an external id")
	}
	if err := prepareForInsert(j); err != nil {
		return false, err
	}
	var id string
	err := r.db.QueryRow(`INSERT INTO job (`+jobColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	ON CONFLICT (external_id) DO NOTHING RETURNING id`, insertArgs(j)...).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "unable to save external job %s", *j.ExternalID)
	}
	return true, nil
}

// GetByID looks the job up by its id first and by its external id second.
func (r *Repository) GetByID(id string) (*Job, error) {
	row := r.db.QueryRow(`SELECT `+jobColumns+` FROM job WHERE id = $1 OR external_id = $1 ORDER BY (id = $1) DESC LIMIT 1`, id)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to get job %s", id)
	}
	return j, nil
}

// List returns one page of jobs plus the total number of rows matching q.
func (r *Repository) List(q Query) ([]*Job, int, error) {
	jobs := []*Job{}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	where := []string{"1=1"}
	args := []interface{}{}
	if s := strings.TrimSpace(q.Search); s != "" {
		args = append(args, s)
		where = append(where, fmt.Sprintf("title ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if q.JobType != "" {
		args = append(args, q.JobType)
		where = append(where, fmt.Sprintf("job_type = $%d", len(args)))
	}
	if q.Level != "" {
		args = append(args, q.Level)
		where = append(where, fmt.Sprintf("level = $%d", len(args)))
	}
	args = append(args, q.Limit, (q.Page-1)*q.Limit)
	stmt := fmt.Sprintf(`SELECT count(*) OVER() AS full_count, %s FROM job WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		jobColumns, strings.Join(where, " AND "), q.OrderBy(), len(args)-1, len(args))
	rows, err := r.db.Query(stmt, args...)
	if err != nil {
		return jobs, 0, errors.Wrap(err, "unable to list jobs")
	}
	defer rows.Close()
	var fullRowsCount int
	for rows.Next() {
		j, err := scanJob(rows, &fullRowsCount)
		if err != nil {
			return jobs, fullRowsCount, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return jobs, fullRowsCount, err
	}
	return jobs, fullRowsCount, nil
}

// Latest returns the n most recently created jobs.
func (r *Repository) Latest(n int) ([]*Job, error) {
	jobs := []*Job{}
	rows, err := r.db.Query(`SELECT `+jobColumns+` FROM job ORDER BY created_at DESC LIMIT $1`, n)
	if err != nil {
		return jobs, err
	}
	defer rows.Close()
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *Repository) All() ([]*Job, error) {
	return r.Latest(100000)
}

func (r *Repository) Update(j *Job) error {
	j.UpdatedAt = time.Now().UTC()
	res, err := r.db.Exec(`UPDATE job SET title = $1, description = $2, requirements = $3, company = $4, location = $5, job_type = $6, level = $7, salary_min = $8, salary_max = $9, currency = $10, benefits = $11, expiration_date = $12, allow_public_apply = $13, updated_at = $14 WHERE id = $15`,
		j.Title,
		j.Description,
		nullString(j.Requirements),
		j.Company,
		j.Location,
		j.JobType,
		j.Level,
		nullFloat(j.SalaryMin),
		nullFloat(j.SalaryMax),
		nullString(j.Currency),
		nullString(j.Benefits),
		j.ExpirationDate,
		j.AllowPublicApply,
		j.UpdatedAt,
		j.ID,
	)
	if err != nil {
		return errors.Wrapf(err, "unable to update job %s", j.ID)
	}
	return affectedOrNotFound(res)
}

func (r *Repository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM job WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "unable to delete job %s", id)
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
