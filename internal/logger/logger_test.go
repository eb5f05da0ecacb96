package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jwebster45206/outbreak-engine/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Production(t *testing.T) {
	var buf bytes.Buffer
	l := setup(&config.Config{Environment: "production", LogLevel: slog.LevelInfo}, &buf)
	WithSession(l, "abc").Info("Session created", "scenario", "county-fair")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Session created", line["msg"])
	assert.Equal(t, "abc", line["session_id"])
}

func TestSetup_DevelopmentLevel(t *testing.T) {
	var buf bytes.Buffer
	l := setup(&config.Config{Environment: "development", LogLevel: slog.LevelWarn}, &buf)
	l.Info("hidden")
	WithError(l, errors.New("boom")).Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "error=boom"))
}
