package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, FormatText, slog.LevelInfo)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("step started", "step", "id-2")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=info")
	assert.Contains(t, out, "step=id-2")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, FormatJSON, slog.LevelDebug)
	require.NoError(t, err)

	logger.Debug("step passed", "step", "id-3")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "debug", rec["level"])
	assert.Equal(t, "step passed", rec["msg"])
	assert.Equal(t, "id-3", rec["step"])
}

func TestNew_Tint(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, FormatTint, slog.LevelInfo)
	require.NoError(t, err)

	logger.Warn("stopping step below open steps", "left_open", 2)

	assert.Contains(t, buf.String(), "stopping step below open steps")
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "xml", slog.LevelInfo)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("nothing") })
}
