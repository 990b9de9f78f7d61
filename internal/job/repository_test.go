package job_test

import (
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-cafe/job-alerts/internal/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jobRowColumns = []string{"id", "title", "description", "requirements", "company", "location", "job_type", "level", "salary_min", "salary_max", "currency", "benefits", "expiration_date", "allow_public_apply", "posted_by_id", "external_id", "is_external", "slug", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*job.Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return job.NewRepository(db), mock
}

func TestRepositorySaveExternal(t *testing.T) {
	extID := "ext-local-service-abc-0"
	newJob := func() *job.Job {
		id := extID
		return &job.Job{Title: "Go Developer", Company: "External Partner", Location: "Spain", ExternalID: &id, IsExternal: true}
	}

	t.Run("inserted", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (external_id) DO NOTHING RETURNING id")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("k1"))
		j := newJob()
		inserted, err := repo.SaveExternal(j)
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NotEmpty(t, j.ID)
		assert.Contains(t, j.Slug, "go-developer")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already stored", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("ON CONFLICT").WillReturnRows(sqlmock.NewRows([]string{"id"}))
		inserted, err := repo.SaveExternal(newJob())
		require.NoError(t, err)
		assert.False(t, inserted)
	})

	t.Run("missing external id", func(t *testing.T) {
		repo, _ := newMockRepo(t)
		_, err := repo.SaveExternal(&job.Job{Title: "Go"})
		assert.Error(t, err)
	})
}

func TestRepositoryGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 OR external_id = $1")).
		WithArgs("ext-local-service-abc-0").
		WillReturnRows(sqlmock.NewRows(jobRowColumns).AddRow(
			"k1", "Go Developer", "desc", nil, "External Partner", "Spain", "full-time", "junior",
			50000.0, 50000.0, "USD", nil, nil, true, nil, "ext-local-service-abc-0", true, "go-developer", now, now,
		))

	j, err := repo.GetByID("ext-local-service-abc-0")
	require.NoError(t, err)
	assert.Equal(t, "k1", j.ID)
	require.NotNil(t, j.ExternalID)
	assert.Equal(t, "ext-local-service-abc-0", *j.ExternalID)
	assert.Equal(t, 50000.0, *j.SalaryMin)
	assert.Empty(t, j.Requirements)
	assert.Nil(t, j.PostedByID)
	assert.Nil(t, j.ExpirationDate)

	mock.ExpectQuery("FROM job").WillReturnRows(sqlmock.NewRows(jobRowColumns))
	_, err = repo.GetByID("missing")
	assert.Equal(t, job.ErrNotFound, err)
}

func TestRepositoryDeleteNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM job WHERE id = $1")).
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Equal(t, job.ErrNotFound, repo.Delete("nope"))
}
