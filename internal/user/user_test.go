package user_test

import (
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-cafe/job-alerts/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	hash, err := user.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, user.CheckPassword("correct horse", hash))
	assert.False(t, user.CheckPassword("wrong horse", hash))
}

func TestAuthenticate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := user.NewRepository(db)

	hash, err := user.HashPassword("correct horse")
	require.NoError(t, err)
	cols := []string{"id", "email", "password", "role_id", "name", "created_at", "updated_at"}
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE u.email = $1")).
		WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", "admin@example.com", hash, "r1", "admin", now, now))
	u, err := repo.Authenticate(" Admin@Example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)
	assert.Equal(t, "r1", *u.RoleID)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE u.email = $1")).
		WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", "admin@example.com", hash, nil, "", now, now))
	_, err = repo.Authenticate("admin@example.com", "nope")
	assert.Equal(t, user.ErrInvalidCredentials, err)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE u.email = $1")).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(cols))
	_, err = repo.Authenticate("ghost@example.com", "whatever")
	assert.Equal(t, user.ErrInvalidCredentials, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsWeakPassword(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = user.NewRepository(db).Create(user.UserRq{Email: "a@example.com", Password: "short"})
	assert.Equal(t, user.ErrWeakPassword, err)
}
