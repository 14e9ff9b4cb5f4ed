package config

import (
	"AssocVerify/internal/verification"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv        string
	EncryptionKey string

	Postgres  PostgresConfig
	HTTP      HTTPConfig
	StatusAPI StatusAPIConfig
	Polling   PollingConfig
	Telegram  TelegramConfig
	Tracker   TrackerConfig
}

type PostgresConfig struct {
	URL string
}

type HTTPConfig struct {
	ListenAddr string
}

type StatusAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PollingConfig mirrors verification.Policy.
type PollingConfig struct {
	Interval               time.Duration
	ProgressInterval       time.Duration
	Deadline               time.Duration
	MaxConsecutiveFailures int
	ProgressStep           int
	ProgressCap            int
}

type TelegramConfig struct {
	Token  string
	ChatID int64
}

// TrackerConfig selects what cmd/tracker follows. With an AssociationID it
// polls an existing registration, otherwise it submits Name/ContactEmail first.
type TrackerConfig struct {
	AssociationID string
	Name          string
	ContactEmail  string
}

// bindings maps viper keys to the environment variables that feed them.
var bindings = map[string]string{
	"app.env":                          "APP_ENV",
	"encryption.key":                   "ENCRYPTION_KEY",
	"postgres.url":                     "DATABASE_URL",
	"http.listen_addr":                 "HTTP_LISTEN_ADDR",
	"status_api.base_url":              "STATUS_API_BASE_URL",
	"status_api.timeout":               "STATUS_API_TIMEOUT",
	"polling.interval":                 "POLL_INTERVAL",
	"polling.progress_interval":        "POLL_PROGRESS_INTERVAL",
	"polling.deadline":                 "POLL_DEADLINE",
	"polling.max_consecutive_failures": "POLL_MAX_CONSECUTIVE_FAILURES",
	"polling.progress_step":            "POLL_PROGRESS_STEP",
	"polling.progress_cap":             "POLL_PROGRESS_CAP",
	"telegram.token":                   "TELEGRAM_TOKEN",
	"telegram.chat_id":                 "TELEGRAM_CHAT_ID",
	"tracker.association_id":           "TRACKER_ASSOCIATION_ID",
	"tracker.name":                     "TRACKER_NAME",
	"tracker.contact_email":            "TRACKER_CONTACT_EMAIL",
}

// Load loads configuration from a .env file (if any) and environment variables.
// It only checks what every binary needs; see ValidateServer and ValidateTracker.
func Load() (*Config, error) {
	// 1. Load .env file into the process environment.
	// A missing file is fine, we fall back to OS-set env vars.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// 2. Explicitly bind viper keys to env var names
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	// 3. Set defaults
	def := verification.DefaultPolicy()
	v.SetDefault("app.env", "dev")
	v.SetDefault("http.listen_addr", "127.0.0.1:8080")
	v.SetDefault("status_api.timeout", "10s")
	v.SetDefault("polling.interval", def.PollInterval.String())
	v.SetDefault("polling.progress_interval", def.ProgressInterval.String())
	v.SetDefault("polling.deadline", def.Deadline.String())
	v.SetDefault("polling.max_consecutive_failures", def.MaxConsecutiveFailures)
	v.SetDefault("polling.progress_step", def.ProgressStep)
	v.SetDefault("polling.progress_cap", def.ProgressCap)

	// 4. Get values from viper
	cfg := Config{
		AppEnv:        v.GetString("app.env"),
		EncryptionKey: strings.TrimSpace(v.GetString("encryption.key")),
		Postgres:      PostgresConfig{URL: v.GetString("postgres.url")},
		HTTP:          HTTPConfig{ListenAddr: v.GetString("http.listen_addr")},
		StatusAPI: StatusAPIConfig{
			BaseURL: v.GetString("status_api.base_url"),
			Timeout: v.GetDuration("status_api.timeout"),
		},
		Polling: PollingConfig{
			Interval:               v.GetDuration("polling.interval"),
			ProgressInterval:       v.GetDuration("polling.progress_interval"),
			Deadline:               v.GetDuration("polling.deadline"),
			MaxConsecutiveFailures: v.GetInt("polling.max_consecutive_failures"),
			ProgressStep:           v.GetInt("polling.progress_step"),
			ProgressCap:            v.GetInt("polling.progress_cap"),
		},
		Telegram: TelegramConfig{
			Token:  v.GetString("telegram.token"),
			ChatID: v.GetInt64("telegram.chat_id"),
		},
		Tracker: TrackerConfig{
			AssociationID: v.GetString("tracker.association_id"),
			Name:          v.GetString("tracker.name"),
			ContactEmail:  v.GetString("tracker.contact_email"),
		},
	}

	// 5. Validation
	if err := cfg.Policy().Validate(); err != nil {
		return nil, fmt.Errorf("invalid polling configuration: %w", err)
	}
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID == 0 {
		return nil, errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	return &cfg, nil
}

// IsDev reports whether human-readable logging should be used.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}

// Policy converts the polling section into a verification.Policy.
func (c *Config) Policy() verification.Policy {
	return verification.Policy{
		PollInterval:           c.Polling.Interval,
		ProgressInterval:       c.Polling.ProgressInterval,
		Deadline:               c.Polling.Deadline,
		MaxConsecutiveFailures: c.Polling.MaxConsecutiveFailures,
		ProgressStep:           c.Polling.ProgressStep,
		ProgressCap:            c.Polling.ProgressCap,
	}
}

// ValidateServer checks the settings cmd/server cannot start without.
func (c *Config) ValidateServer() error {
	if c.EncryptionKey == "" {
		return errors.New("ENCRYPTION_KEY is not set in environment or .env file")
	}
	if len(c.EncryptionKey) != 64 {
		return fmt.Errorf("ENCRYPTION_KEY must be a 64-character hex string (32 bytes), but got %d chars", len(c.EncryptionKey))
	}
	if _, err := hex.DecodeString(c.EncryptionKey); err != nil {
		return fmt.Errorf("ENCRYPTION_KEY must be hex-encoded: %w", err)
	}
	if c.Postgres.URL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if c.HTTP.ListenAddr == "" {
		return errors.New("HTTP_LISTEN_ADDR is empty")
	}
	return nil
}

// ValidateTracker checks the settings cmd/tracker cannot start without.
func (c *Config) ValidateTracker() error {
	if c.StatusAPI.BaseURL == "" {
		return errors.New("STATUS_API_BASE_URL is not set")
	}
	if c.Tracker.AssociationID == "" && (c.Tracker.Name == "" || c.Tracker.ContactEmail == "") {
		return errors.New("set TRACKER_ASSOCIATION_ID, or TRACKER_NAME and TRACKER_CONTACT_EMAIL to register a new association")
	}
	return nil
}
