package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// GetLogLevel returns the log level based on the LOG_LEVEL environment variable.
// If LOG_LEVEL is not set or invalid, it defaults to Info level.
func GetLogLevel() slog.Level {
	level, ok := ParseLevel(os.Getenv("LOG_LEVEL"))
	if !ok {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel converts a level name to a slog level.
//
// Supported values (case-insensitive):
//   - DEBUG: slog.LevelDebug
//   - INFO: slog.LevelInfo
//   - WARN or WARNING: slog.LevelWarn
//   - ERROR or CRITICAL: slog.LevelError
//
// The boolean is false when the name is empty or unknown.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR", "CRITICAL":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// NewLogger creates a JSON logger writing to w at the given level
func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
