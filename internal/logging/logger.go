package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the debug trace written under the logs directory.
const FileName = "refclone.log"

// New opens (or reuses) logDir/refclone.log and returns a JSON slog logger
// writing to it, plus a close func for the file handle.
func New(logDir string, level slog.Level) (*slog.Logger, func() error, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return NewWriter(f, level), f.Close, nil
}

// NewWriter returns a JSON slog logger writing to w.
func NewWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLevel maps debug/info/warn/error to a slog level. Unknown values
// fall back to info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
