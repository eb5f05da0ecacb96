package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// RedisURL enables event broadcasting when set.
	RedisURL string
	// DataDir overrides the embedded scenario library.
	DataDir string

	TickInterval     time.Duration
	FastTickInterval time.Duration
	RandomSeed       int64 // 0 seeds from the clock
	SessionTTL       time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:    getEnv("REDIS_URL", ""),
		DataDir:     getEnv("DATA_DIR", ""),
	}

	var errs []error
	var err error
	if cfg.TickInterval, err = getDuration("TICK_INTERVAL", time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.FastTickInterval, err = getDuration("FAST_TICK_INTERVAL", 250*time.Millisecond); err != nil {
		errs = append(errs, err)
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 2*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if seed := os.Getenv("RANDOM_SEED"); seed != "" {
		if cfg.RandomSeed, err = strconv.ParseInt(seed, 10, 64); err != nil {
			errs = append(errs, fmt.Errorf("RANDOM_SEED: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, d)
	}
	return d, nil
}
