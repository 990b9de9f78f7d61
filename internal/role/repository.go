package role

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

var (
	ErrNotFound  = errors.New("role not found")
	ErrDuplicate = errors.New("role already exists")
	ErrEmptyName = errors.New("role name cannot be empty")
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

func (r *Repository) exists(name, exceptID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM role WHERE name = $1 AND id <> $2)`, name, exceptID).Scan(&exists)
	return exists, err
}

func (r *Repository) Create(rq RoleRq) (*Role, error) {
	name := NormalizeName(rq.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	exists, err := r.exists(name, "")
	if err != nil {
		return nil, errors.Wrap(err, "unable to check role name")
	}
	if exists {
		return nil, ErrDuplicate
	}
	id, err := ksuid.NewRandom()
	if err != nil {
		return nil, err
	}
	ro := &Role{ID: id.String(), Name: name, Description: rq.Description, CreatedAt: time.Now().UTC()}
	_, err = r.db.Exec(`INSERT INTO role (id, name, description, created_at) VALUES ($1, $2, $3, $4)`, ro.ID, ro.Name, ro.Description, ro.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create role")
	}
	return ro, nil
}

func (r *Repository) FindAll() ([]*Role, error) {
	roles := []*Role{}
	rows, err := r.db.Query(`SELECT id, name, COALESCE(description, ''), created_at FROM role ORDER BY name ASC`)
	if err != nil {
		return roles, err
	}
	defer rows.Close()
	for rows.Next() {
		ro := &Role{}
		if err := rows.Scan(&ro.ID, &ro.Name, &ro.Description, &ro.CreatedAt); err != nil {
			return roles, err
		}
		roles = append(roles, ro)
	}
	return roles, rows.Err()
}

func (r *Repository) getBy(column, value string) (*Role, error) {
	ro := &Role{}
	err := r.db.QueryRow(`SELECT id, name, COALESCE(description, ''), created_at FROM role WHERE `+column+` = $1`, value).
		Scan(&ro.ID, &ro.Name, &ro.Description, &ro.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ro, nil
}

func (r *Repository) GetByID(id string) (*Role, error) {
	return r.getBy("id", id)
}

func (r *Repository) GetByName(name string) (*Role, error) {
	return r.getBy("name", NormalizeName(name))
}

func (r *Repository) Update(id string, rq RoleRq) (*Role, error) {
	ro, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rq.Name != "" {
		name := NormalizeName(rq.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		exists, err := r.exists(name, id)
		if err != nil {
			return nil, errors.Wrap(err, "unable to check role name")
		}
		if exists {
			return nil, ErrDuplicate
		}
		ro.Name = name
	}
	if rq.Description != "" {
		ro.Description = rq.Description
	}
	_, err = r.db.Exec(`UPDATE role SET name = $1, description = $2 WHERE id = $3`, ro.Name, ro.Description, ro.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to update role %s", id)
	}
	return ro, nil
}

func (r *Repository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM role WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "unable to delete role %s", id)
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
