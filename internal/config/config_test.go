package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "ENVIRONMENT", "LOG_LEVEL", "REDIS_URL", "DATA_DIR",
		"TICK_INTERVAL", "FAST_TICK_INTERVAL", "RANDOM_SEED", "SESSION_TTL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.FastTickInterval)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Zero(t, cfg.RandomSeed)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("TICK_INTERVAL", "2s")
	t.Setenv("RANDOM_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, 2*time.Second, cfg.TickInterval)
	assert.Equal(t, int64(42), cfg.RandomSeed)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("TICK_INTERVAL", "soon")
	t.Setenv("SESSION_TTL", "-1m")
	t.Setenv("RANDOM_SEED", "abc")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TICK_INTERVAL")
	assert.Contains(t, err.Error(), "SESSION_TTL")
	assert.Contains(t, err.Error(), "RANDOM_SEED")
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
