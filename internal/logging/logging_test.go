package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Warn("failed to read file", "path", "a.txt")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "path=a.txt")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"off", levelOff, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, slog.LevelInfo, LevelFromString("loud"))
}

func TestForProjectWritesLogFile(t *testing.T) {
	project := t.TempDir()
	logPath := filepath.Join(project, "logs", "ctxpack.log")

	logger, closer := ForProject(project, logPath, slog.LevelDebug)
	logger.Debug("dispatching command", "command", "add")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "command=add")
}

func TestForProjectWithoutProjectDirDiscards(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	logPath := filepath.Join(missing, "logs", "ctxpack.log")

	logger, closer := ForProject(missing, logPath, slog.LevelDebug)
	logger.Error("nobody hears this")
	require.NoError(t, closer.Close())

	_, err := os.Stat(logPath)
	assert.True(t, os.IsNotExist(err))
}
