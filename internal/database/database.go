package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
)

// Table Structure:
//
// CREATE TABLE IF NOT EXISTS role (
// 	id CHAR(27) NOT NULL UNIQUE,
// 	name VARCHAR(50) NOT NULL UNIQUE,
// 	description VARCHAR(255) DEFAULT NULL,
// 	created_at TIMESTAMP NOT NULL,
// 	PRIMARY KEY(id)
// );

// CREATE TABLE IF NOT EXISTS users (
// 	id CHAR(27) NOT NULL UNIQUE,
// 	email VARCHAR(255) NOT NULL UNIQUE,
// 	password VARCHAR(255) NOT NULL,
// 	role_id CHAR(27) DEFAULT NULL REFERENCES role (id) ON DELETE SET NULL,
// 	created_at TIMESTAMP NOT NULL,
// 	updated_at TIMESTAMP NOT NULL,
// 	PRIMARY KEY(id)
// );

// CREATE TABLE IF NOT EXISTS job (
// 	id CHAR(27) NOT NULL UNIQUE,
// 	title VARCHAR(255) NOT NULL,
// 	description TEXT NOT NULL DEFAULT '',
// 	requirements TEXT DEFAULT NULL,
// 	company VARCHAR(255) NOT NULL,
// 	location VARCHAR(255) NOT NULL,
// 	job_type VARCHAR(20) NOT NULL DEFAULT 'full-time',
// 	level VARCHAR(20) NOT NULL DEFAULT 'junior',
// 	salary_min NUMERIC(12,2) DEFAULT NULL,
// 	salary_max NUMERIC(12,2) DEFAULT NULL,
// 	currency CHAR(3) DEFAULT NULL,
// 	benefits TEXT DEFAULT NULL,
// 	expiration_date TIMESTAMP DEFAULT NULL,
// 	allow_public_apply BOOLEAN NOT NULL DEFAULT TRUE,
// 	posted_by_id CHAR(27) DEFAULT NULL REFERENCES users (id) ON DELETE SET NULL,
// 	external_id VARCHAR(100) DEFAULT NULL UNIQUE,
// 	is_external BOOLEAN NOT NULL DEFAULT FALSE,
// 	slug VARCHAR(255) NOT NULL,
// 	created_at TIMESTAMP NOT NULL,
// 	updated_at TIMESTAMP NOT NULL,
// 	PRIMARY KEY(id)
// );
// CREATE INDEX job_created_at_idx ON job (created_at);
// CREATE INDEX job_title_trgm_idx ON job USING GIN (title gin_trgm_ops);

// CREATE TABLE IF NOT EXISTS job_alert (
// 	id CHAR(27) NOT NULL UNIQUE,
// 	email VARCHAR(255) NOT NULL,
// 	search_pattern VARCHAR(255) DEFAULT NULL,
// 	job_type VARCHAR(20) DEFAULT NULL,
// 	level VARCHAR(20) DEFAULT NULL,
// 	location VARCHAR(255) DEFAULT NULL,
// 	salary_min NUMERIC(12,2) DEFAULT NULL,
// 	salary_max NUMERIC(12,2) DEFAULT NULL,
// 	is_active BOOLEAN NOT NULL DEFAULT TRUE,
// 	user_id CHAR(27) DEFAULT NULL REFERENCES users (id) ON DELETE CASCADE,
// 	created_at TIMESTAMP NOT NULL,
// 	updated_at TIMESTAMP NOT NULL,
// 	PRIMARY KEY(id)
// );
// CREATE INDEX job_alert_is_active_idx ON job_alert (is_active);

// CREATE TABLE IF NOT EXISTS job_application (
// 	id CHAR(27) NOT NULL UNIQUE,
// 	job_id CHAR(27) NOT NULL REFERENCES job (id) ON DELETE CASCADE,
// 	user_id CHAR(27) DEFAULT NULL REFERENCES users (id) ON DELETE SET NULL,
// 	email VARCHAR(255) NOT NULL,
// 	phone VARCHAR(50) DEFAULT NULL,
// 	cover_letter TEXT DEFAULT NULL,
// 	resume_url VARCHAR(500) DEFAULT NULL,
// 	status VARCHAR(20) NOT NULL DEFAULT 'pending',
// 	created_at TIMESTAMP NOT NULL,
// 	updated_at TIMESTAMP NOT NULL,
// 	PRIMARY KEY(id)
// );
// CREATE UNIQUE INDEX job_application_user_job_idx ON job_application (user_id, job_id) WHERE user_id IS NOT NULL;
// CREATE INDEX job_application_job_id_idx ON job_application (job_id);

// CREATE TABLE IF NOT EXISTS meta (
// 	key VARCHAR(255) NOT NULL UNIQUE,
// 	value VARCHAR(255) NOT NULL
// );

func GetDbConn(databaseUser string, databasePassword string, databaseHost string, databasePort string, databaseName string, sslMode string) (*sql.DB, error) {
	databaseURL := fmt.Sprintf("postgres://%v:%v@%v:%v/%v?sslmode=%s",
		url.QueryEscape(databaseUser),
		url.QueryEscape(databasePassword),
		databaseHost,
		databasePort,
		databaseName,
		sslMode,
	)
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(20)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// CloseDbConn closes db conn
func CloseDbConn(conn *sql.DB) {
	conn.Close()
}
