package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.HasResend())
	assert.False(t, cfg.EmailRequired)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowRequest())
	assert.Equal(t, 50*time.Millisecond, cfg.SlowQuery())
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CLUBROSTER_ADDR", ":9000")
	t.Setenv("CLUBROSTER_EMAIL_REQUIRED", "true")
	t.Setenv("CLUBROSTER_SLOW_QUERY_MS", "5")
	t.Setenv("CLUBROSTER_LOG_LEVEL", "DEBUG")
	t.Setenv("CLUBROSTER_RESEND_KEY", "re_123")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.True(t, cfg.EmailRequired)
	assert.Equal(t, 5*time.Millisecond, cfg.SlowQuery())
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.True(t, cfg.HasResend())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad int", map[string]string{"CLUBROSTER_SLOW_QUERY_MS": "fast"}, "parse env:"},
		{"bad env", map[string]string{"CLUBROSTER_ENV": "staging"}, "CLUBROSTER_ENV"},
		{"production without key", map[string]string{"CLUBROSTER_ENV": "production"}, "CLUBROSTER_CSRF_KEY"},
		{"short key", map[string]string{"CLUBROSTER_CSRF_KEY": "short"}, "32 bytes"},
		{"negative threshold", map[string]string{"CLUBROSTER_SLOW_REQUEST_MS": "-1"}, "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadProduction(t *testing.T) {
	t.Setenv("CLUBROSTER_ENV", "production")
	t.Setenv("CLUBROSTER_CSRF_KEY", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}
