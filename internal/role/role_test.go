package role_test

import (
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-cafe/job-alerts/internal/role"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "admin", role.NormalizeName("  Admin "))
	assert.Equal(t, "", role.NormalizeName("   "))
}

func TestCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := role.NewRepository(db)

	t.Run("empty name", func(t *testing.T) {
		_, err := repo.Create(role.RoleRq{Name: "  "})
		assert.Equal(t, role.ErrEmptyName, err)
	})

	t.Run("duplicate", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs("admin", "").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		_, err := repo.Create(role.RoleRq{Name: " ADMIN"})
		assert.Equal(t, role.ErrDuplicate, err)
	})

	t.Run("created lowercased", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs("recruiter", "").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO role")).
			WithArgs(sqlmock.AnyArg(), "recruiter", "Posts jobs", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		ro, err := repo.Create(role.RoleRq{Name: "Recruiter ", Description: "Posts jobs"})
		require.NoError(t, err)
		assert.Equal(t, "recruiter", ro.Name)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
