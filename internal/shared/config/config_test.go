package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// clearEnv blanks every bound variable so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir()) // no .env here
	for _, env := range bindings {
		t.Setenv(env, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.ListenAddr)
	assert.Equal(t, 10*time.Second, cfg.StatusAPI.Timeout)

	p := cfg.Policy()
	assert.Equal(t, 5*time.Second, p.PollInterval)
	assert.Equal(t, 700*time.Millisecond, p.ProgressInterval)
	assert.Equal(t, 120*time.Second, p.Deadline)
	assert.Equal(t, 5, p.MaxConsecutiveFailures)
	assert.Equal(t, 5, p.ProgressStep)
	assert.Equal(t, 95, p.ProgressCap)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("POLL_INTERVAL", "2s")
	t.Setenv("POLL_DEADLINE", "1m")
	t.Setenv("POLL_MAX_CONSECUTIVE_FAILURES", "3")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")
	t.Setenv("TRACKER_ASSOCIATION_ID", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsDev())
	assert.Equal(t, 2*time.Second, cfg.Polling.Interval)
	assert.Equal(t, time.Minute, cfg.Polling.Deadline)
	assert.Equal(t, 3, cfg.Polling.MaxConsecutiveFailures)
	assert.Equal(t, int64(-100200300), cfg.Telegram.ChatID)
	assert.Equal(t, "42", cfg.Tracker.AssociationID)
}

func TestLoad_RejectsBadPolicy(t *testing.T) {
	clearEnv(t)
	t.Setenv("POLL_PROGRESS_CAP", "100")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_TelegramNeedsChat(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "123:abc")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateServer(t *testing.T) {
	testCases := []struct {
		name    string
		key     string
		dbURL   string
		wantErr string
	}{
		{name: "ok", key: testKey, dbURL: "postgres://localhost/assoc"},
		{name: "missing key", dbURL: "postgres://localhost/assoc", wantErr: "ENCRYPTION_KEY is not set"},
		{name: "short key", key: "abcd", dbURL: "postgres://localhost/assoc", wantErr: "64-character"},
		{name: "not hex", key: strings.Repeat("zz", 32), dbURL: "postgres://localhost/assoc", wantErr: "hex"},
		{name: "missing database", key: testKey, wantErr: "DATABASE_URL"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("ENCRYPTION_KEY", tc.key)
			t.Setenv("DATABASE_URL", tc.dbURL)

			cfg, err := Load()
			require.NoError(t, err)

			err = cfg.ValidateServer()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateTracker(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.ValidateTracker())

	cfg.StatusAPI.BaseURL = "http://127.0.0.1:8080"
	assert.Error(t, cfg.ValidateTracker(), "needs either an id or registration details")

	cfg.Tracker.Name = "Chess Club"
	cfg.Tracker.ContactEmail = "board@chess.example"
	assert.NoError(t, cfg.ValidateTracker())

	cfg.Tracker = TrackerConfig{AssociationID: "42"}
	assert.NoError(t, cfg.ValidateTracker())
}
