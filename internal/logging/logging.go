// Package logging builds the slog loggers used across ctxpack. The
// interactive session owns the terminal, so logs go to the project's log
// file or nowhere.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// levelOff is above every standard level
const levelOff = slog.Level(100)

// NewLogger creates a text logger writing to w
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewFileLogger creates a logger appending to path, creating the file and
// its directory when missing. The caller closes the returned file.
func NewFileLogger(path string, level slog.Level) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewLogger(f, level), f, nil
}

// NewDiscardLogger creates a logger that drops everything
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelOff}))
}

// ParseLevel converts debug, info, warn or error (any case) to a level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "off", "none":
		return levelOff, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s (must be: debug, info, warn, error or off)", s)
	}
}

// LevelFromString is ParseLevel with unknown names mapped to info
func LevelFromString(s string) slog.Level {
	level, _ := ParseLevel(s)
	return level
}

// ForProject returns a logger writing to logPath when its project
// directory exists, otherwise a discard logger. The returned closer is
// never nil.
func ForProject(projectDir, logPath string, level slog.Level) (*slog.Logger, io.Closer) {
	if info, err := os.Stat(projectDir); err != nil || !info.IsDir() {
		return NewDiscardLogger(), nopCloser{}
	}

	logger, f, err := NewFileLogger(logPath, level)
	if err != nil {
		return NewDiscardLogger(), nopCloser{}
	}
	return logger, f
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
