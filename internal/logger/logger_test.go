package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture swaps the singleton for a logger writing into a buffer and restores
// the previous logger when the test finishes.
func capture(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()

	previous := Get()
	t.Cleanup(func() { Set(previous) })

	var buf bytes.Buffer
	Set(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level})))
	return &buf
}

func TestInfow_EmitsStructuredFields(t *testing.T) {
	buf := capture(t, slog.LevelInfo)

	Infow("token acquired", "ttl", 86400)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "token acquired", record["msg"])
	assert.EqualValues(t, 86400, record["ttl"])
}

func TestDebugf_SuppressedAtInfoLevel(t *testing.T) {
	buf := capture(t, slog.LevelInfo)

	Debugf("hidden %s", "detail")

	assert.Empty(t, buf.String())
}

func TestInitialize_ReadsEnvironment(t *testing.T) {
	previous := Get()
	t.Cleanup(func() { Set(previous) })

	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UNSTRUCTURED_LOGS", "true")

	Initialize()

	assert.True(t, Get().Enabled(context.Background(), slog.LevelDebug))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}
