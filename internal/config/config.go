// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

var ErrCSRFKeyRequired = errors.New("CLUBROSTER_CSRF_KEY must be 32 bytes in production")

// Config is the server configuration. Every field has a development default.
type Config struct {
	Addr           string `env:"CLUBROSTER_ADDR" envDefault:":8080"`
	DBPath         string `env:"CLUBROSTER_DB_PATH" envDefault:"clubroster.db"`
	Env            string `env:"CLUBROSTER_ENV" envDefault:"development"`
	LogLevel       string `env:"CLUBROSTER_LOG_LEVEL" envDefault:"info"`
	CSRFKey        string `env:"CLUBROSTER_CSRF_KEY"`
	BaseURL        string `env:"CLUBROSTER_BASE_URL" envDefault:"http://localhost:8080"`
	ResendKey      string `env:"CLUBROSTER_RESEND_KEY"`
	ResendFrom     string `env:"CLUBROSTER_RESEND_FROM" envDefault:"Club Roster <noreply@clubroster.local>"`
	ReplyTo        string `env:"CLUBROSTER_REPLY_TO"`
	AdminEmail     string `env:"CLUBROSTER_ADMIN_EMAIL"`
	AdminPassword  string `env:"CLUBROSTER_ADMIN_PASSWORD"`
	AdminClubName  string `env:"CLUBROSTER_ADMIN_CLUB" envDefault:"Home Club"`
	SlowRequestMS  int    `env:"CLUBROSTER_SLOW_REQUEST_MS" envDefault:"200"`
	SlowQueryMS    int    `env:"CLUBROSTER_SLOW_QUERY_MS" envDefault:"50"`
	EmailRequired  bool   `env:"CLUBROSTER_EMAIL_REQUIRED" envDefault:"false"`
	StrictDecoding bool   `env:"CLUBROSTER_STRICT_DECODING" envDefault:"false"`
}

// Load parses the environment into a Config and checks it.
// POST: Returns a validated Config or an error naming the bad variable
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c Config) Validate() error {
	switch c.Env {
	case EnvDevelopment:
	case EnvProduction:
		if len(c.CSRFKey) != 32 {
			return ErrCSRFKeyRequired
		}
	default:
		return fmt.Errorf("CLUBROSTER_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}
	if c.CSRFKey != "" && len(c.CSRFKey) != 32 {
		return errors.New("CLUBROSTER_CSRF_KEY must be exactly 32 bytes")
	}
	if c.SlowRequestMS < 0 || c.SlowQueryMS < 0 {
		return errors.New("slow thresholds cannot be negative")
	}
	return nil
}

// IsProduction returns true when running with production settings.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// SlowRequest is the threshold above which a request is logged as slow.
func (c Config) SlowRequest() time.Duration {
	return time.Duration(c.SlowRequestMS) * time.Millisecond
}

// SlowQuery is the threshold above which a query is logged as slow.
func (c Config) SlowQuery() time.Duration {
	return time.Duration(c.SlowQueryMS) * time.Millisecond
}

// Level maps LogLevel to a slog level, defaulting to info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// HasResend reports whether real email delivery is configured.
func (c Config) HasResend() bool {
	return c.ResendKey != ""
}
