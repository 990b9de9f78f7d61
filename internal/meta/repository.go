package meta

import (
	"database/sql"
	"time"
)

const lastExternalSyncPrefix = "last_external_sync_"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

func (r *Repository) GetValue(key string) (string, error) {
	res := r.db.QueryRow(`SELECT value FROM meta WHERE key = $1`, key)
	var val string
	err := res.Scan(&val)
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *Repository) SetValue(key, val string) error {
	_, err := r.db.Exec(`INSERT INTO meta (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, val)
	return err
}

func (r *Repository) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM meta WHERE key = $1`, key)
	return err
}

// LastExternalSync returns when the given source was last synced, or the zero
// time if it never was.
func (r *Repository) LastExternalSync(sourceKey string) (time.Time, error) {
	val, err := r.GetValue(lastExternalSyncPrefix + sourceKey)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, val)
}

func (r *Repository) SetLastExternalSync(sourceKey string, at time.Time) error {
	return r.SetValue(lastExternalSyncPrefix+sourceKey, at.UTC().Format(time.RFC3339))
}
