package config_test

import (
	"testing"
	"time"

	"github.com/golang-cafe/job-alerts/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("PORT", "9876")
	t.Setenv("DATABASE_USER", "jobs")
	t.Setenv("DATABASE_PASSWORD", "secret")
	t.Setenv("DATABASE_HOST", "localhost")
	t.Setenv("DATABASE_PORT", "5432")
	t.Setenv("DATABASE_NAME", "jobs")
	t.Setenv("DATABASE_SSL_MODE", "disable")
	t.Setenv("ENV", "DEV")
	t.Setenv("SESSION_KEY", "c2Vzc2lvbg==")
	t.Setenv("JWT_SIGNING_KEY", "and0")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)
	for _, k := range []string{"EMAIL_API_TOKEN", "APP_URL", "NOTIFICATION_TIMEOUT", "NOTIFICATION_CONCURRENCY", "EXTERNAL_SYNC_SCHEDULE", "JOBS_PER_PAGE"} {
		t.Setenv(k, "")
	}

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, []byte("session"), cfg.SessionKey)
	assert.Equal(t, []byte("jwt"), cfg.JwtSigningKey)
	assert.Equal(t, "", cfg.EmailAPIToken)
	assert.Equal(t, 10*time.Second, cfg.NotificationTimeout)
	assert.Equal(t, 4, cfg.NotificationConcurrency)
	assert.Equal(t, "@every 6h", cfg.ExternalSyncSchedule)
	assert.Equal(t, 12, cfg.JobsPerPage)
	assert.Equal(t, "http://localhost:3000", cfg.AppURL)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_URL", "https://jobs.example.com/")
	t.Setenv("NOTIFICATION_TIMEOUT", "3s")
	t.Setenv("NOTIFICATION_CONCURRENCY", "8")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://jobs.example.com", cfg.AppURL)
	assert.Equal(t, 3*time.Second, cfg.NotificationTimeout)
	assert.Equal(t, 8, cfg.NotificationConcurrency)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		key, value, wantErr string
	}{
		{"PORT", "", "PORT cannot be empty"},
		{"DATABASE_SSL_MODE", "", "DATABASE_SSL_MODE cannot be empty"},
		{"SESSION_KEY", "%%%", "unable to decode session key"},
		{"NOTIFICATION_TIMEOUT", "soon", "NOTIFICATION_TIMEOUT"},
		{"NOTIFICATION_CONCURRENCY", "0", "NOTIFICATION_CONCURRENCY must be greater than zero"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)
			_, err := config.LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
