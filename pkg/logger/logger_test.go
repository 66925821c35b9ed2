package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fineprintai/gatekit/pkg/logger"
)

func TestNew_JSONDefaults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithService("gatekit"),
	)

	log.Info("snapshot refreshed", "tier", "starter")
	log.Debug("should be filtered at info level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "snapshot refreshed", record["msg"])
	assert.Equal(t, "gatekit", record["service"])
	assert.Equal(t, "starter", record["tier"])
}

func TestNew_DevelopmentText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithDevelopment(),
	)

	log.Debug("debug visible in development")
	assert.Contains(t, buf.String(), "debug visible in development")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestNew_LevelOverride(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithLevel(slog.LevelWarn),
	)

	log.Info("filtered")
	log.Warn("kept")

	assert.NotContains(t, buf.String(), "filtered")
	assert.Contains(t, buf.String(), "kept")
}
