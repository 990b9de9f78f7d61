package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	Port                    string
	DatabaseUser            string
	DatabasePassword        string
	DatabaseHost            string
	DatabasePort            string
	DatabaseName            string
	DatabaseSSLMode         string
	SessionKey              []byte
	JwtSigningKey           []byte
	Env                     string // either prod or dev, will disable https and few other bits
	EmailAPIURL             string // transactional email endpoint
	EmailAPIToken           string // when empty every email send fails and is logged
	EmailSenderAddress      string
	EmailSenderName         string
	AppURL                  string // public site url used in email links
	NotificationTimeout     time.Duration
	NotificationConcurrency int
	ExternalSourceURL       string // legacy external jobs service
	ExternalSyncSchedule    string // cron spec for external jobs sync
	ExternalCacheTTL        time.Duration
	JobsPerPage             int // configures how many jobs are shown per page result
	SentryDSN               string
}

func LoadConfig() (Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		return Config{}, fmt.Errorf("PORT cannot be empty")
	}
	databaseUser := os.Getenv("DATABASE_USER")
	if databaseUser == "" {
		return Config{}, fmt.Errorf("DATABASE_USER cannot be empty")
	}
	databasePassword := os.Getenv("DATABASE_PASSWORD")
	if databasePassword == "" {
		return Config{}, fmt.Errorf("DATABASE_PASSWORD cannot be empty")
	}
	databaseHost := os.Getenv("DATABASE_HOST")
	if databaseHost == "" {
		return Config{}, fmt.Errorf("DATABASE_HOST cannot be empty")
	}
	databasePort := os.Getenv("DATABASE_PORT")
	if databasePort == "" {
		return Config{}, fmt.Errorf("DATABASE_PORT cannot be empty")
	}
	databaseName := os.Getenv("DATABASE_NAME")
	if databaseName == "" {
		return Config{}, fmt.Errorf("DATABASE_NAME cannot be empty")
	}
	databaseSSLMode := os.Getenv("DATABASE_SSL_MODE")
	if databaseSSLMode == "" {
		return Config{}, fmt.Errorf("DATABASE_SSL_MODE cannot be empty")
	}
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		return Config{}, fmt.Errorf("ENV cannot be empty")
	}
	sessionKeyString := os.Getenv("SESSION_KEY")
	if sessionKeyString == "" {
		return Config{}, fmt.Errorf("SESSION_KEY cannot be empty")
	}
	sessionKeyBytes, err := base64.StdEncoding.DecodeString(sessionKeyString)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode session key to bytes")
	}
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		return Config{}, fmt.Errorf("JWT_SIGNING_KEY cannot be empty")
	}
	jwtSigningKeyBytes, err := base64.StdEncoding.DecodeString(jwtSigningKey)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode jwt signing key to bytes")
	}
	notificationTimeout, err := durationOrDefault("NOTIFICATION_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	notificationConcurrency, err := intOrDefault("NOTIFICATION_CONCURRENCY", 4)
	if err != nil {
		return Config{}, err
	}
	externalCacheTTL, err := durationOrDefault("EXTERNAL_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return Config{}, err
	}
	jobsPerPage, err := intOrDefault("JOBS_PER_PAGE", 12)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Port:                    port,
		DatabaseUser:            databaseUser,
		DatabasePassword:        databasePassword,
		DatabaseHost:            databaseHost,
		DatabasePort:            databasePort,
		DatabaseName:            databaseName,
		DatabaseSSLMode:         databaseSSLMode,
		SessionKey:              sessionKeyBytes,
		JwtSigningKey:           jwtSigningKeyBytes,
		Env:                     env,
		EmailAPIURL:             stringOrDefault("EMAIL_API_URL", "https://send.api.mailtrap.io/api/send"),
		EmailAPIToken:           os.Getenv("EMAIL_API_TOKEN"),
		EmailSenderAddress:      stringOrDefault("EMAIL_SENDER_ADDRESS", "alerts@localhost"),
		EmailSenderName:         stringOrDefault("EMAIL_SENDER_NAME", "Job Alerts"),
		AppURL:                  strings.TrimRight(stringOrDefault("APP_URL", "http://localhost:3000"), "/"),
		NotificationTimeout:     notificationTimeout,
		NotificationConcurrency: notificationConcurrency,
		ExternalSourceURL:       stringOrDefault("EXTERNAL_SOURCE_URL", "http://localhost:8080/jobs"),
		ExternalSyncSchedule:    stringOrDefault("EXTERNAL_SYNC_SCHEDULE", "@every 6h"),
		ExternalCacheTTL:        externalCacheTTL,
		JobsPerPage:             jobsPerPage,
		SentryDSN:               os.Getenv("SENTRY_DSN"),
	}, nil
}

func stringOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intOrDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to convert %s to int", key)
	}
	if n < 1 {
		return 0, fmt.Errorf("%s must be greater than zero", key)
	}
	return n, nil
}

func durationOrDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to parse %s as duration", key)
	}
	return d, nil
}
