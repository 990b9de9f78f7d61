package user

import (
	"database/sql"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicate          = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.Errorf("password must be at least %d characters", minPasswordLength)
)

const userSelect = `SELECT u.id, u.email, u.password, u.role_id, COALESCE(r.name, ''), u.created_at, u.updated_at FROM users u LEFT JOIN role r ON r.id = u.role_id`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*User, error) {
	u := &User{}
	var roleID sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &roleID, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if roleID.Valid {
		u.RoleID = &roleID.String
	}
	u.CreatedAtHumanised = humanize.Time(u.CreatedAt.UTC())
	return u, nil
}

func (r *Repository) getOne(where string, arg string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(userSelect+` WHERE `+where+` = $1`, arg))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) GetByID(id string) (*User, error) {
	return r.getOne("u.id", id)
}

func (r *Repository) GetByEmail(email string) (*User, error) {
	return r.getOne("u.email", NormalizeEmail(email))
}

// Authenticate returns the user when email and password match.
func (r *Repository) Authenticate(email, password string) (*User, error) {
	u, err := r.GetByEmail(email)
	if err == ErrNotFound {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (r *Repository) FindAll() ([]*User, error) {
	users := []*User{}
	rows, err := r.db.Query(userSelect + ` ORDER BY u.created_at DESC`)
	if err != nil {
		return users, err
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return users, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *Repository) Create(rq UserRq) (*User, error) {
	email := NormalizeEmail(rq.Email)
	if len(rq.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if _, err := r.GetByEmail(email); err == nil {
		return nil, ErrDuplicate
	} else if err != ErrNotFound {
		return nil, err
	}
	hash, err := HashPassword(rq.Password)
	if err != nil {
		return nil, errors.Wrap(err, "unable to hash password")
	}
	id, err := ksuid.NewRandom()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &User{ID: id.String(), Email: email, PasswordHash: hash, RoleID: rq.RoleID, CreatedAt: now, UpdatedAt: now}
	if _, err := r.db.Exec(`INSERT INTO users (id, email, password, role_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`, u.ID, u.Email, u.PasswordHash, u.RoleID, u.CreatedAt, u.UpdatedAt); err != nil {
		return nil, errors.Wrap(err, "unable to create user")
	}
	u.CreatedAtHumanised = humanize.Time(u.CreatedAt)
	return u, nil
}

// Update changes email, password and role when set in rq.
func (r *Repository) Update(id string, rq UserRq) (*User, error) {
	u, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rq.Email != "" {
		email := NormalizeEmail(rq.Email)
		if email != u.Email {
			if _, err := r.GetByEmail(email); err == nil {
				return nil, ErrDuplicate
			} else if err != ErrNotFound {
				return nil, err
			}
		}
		u.Email = email
	}
	if rq.Password != "" {
		if len(rq.Password) < minPasswordLength {
			return nil, ErrWeakPassword
		}
		if u.PasswordHash, err = HashPassword(rq.Password); err != nil {
			return nil, errors.Wrap(err, "unable to hash password")
		}
	}
	if rq.RoleID != nil {
		u.RoleID = rq.RoleID
		if *rq.RoleID == "" {
			u.RoleID = nil
		}
	}
	u.UpdatedAt = time.Now().UTC()
	if _, err := r.db.Exec(`UPDATE users SET email = $1, password = $2, role_id = $3, updated_at = $4 WHERE id = $5`, u.Email, u.PasswordHash, u.RoleID, u.UpdatedAt, u.ID); err != nil {
		return nil, errors.Wrapf(err, "unable to update user %s", id)
	}
	return r.GetByID(id)
}

func (r *Repository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "unable to delete user %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
