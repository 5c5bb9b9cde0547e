package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydeck/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("trace")
	assert.Error(t, err)
}

func TestNew_JSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := newWithStderr(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	log.Info("hidden")
	log.Warn("shown", "dialect", "mysql")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "mysql", entry["dialect"])
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := newWithStderr(config.LogConfig{Level: "debug", Format: "text"}, &buf)
	require.NoError(t, err)
	log.Debug("opened", "database", "shop")
	assert.Contains(t, buf.String(), "msg=opened")
	assert.Contains(t, buf.String(), "database=shop")
}

func TestNew_RotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "querydeck.log")
	log, closer, err := New(config.LogConfig{Level: "info", Format: "text", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Info("written to file")
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "written to file")
}

func TestNew_Rejects(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
	_, _, err = New(config.LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
