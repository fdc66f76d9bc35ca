// Package logging builds the slog loggers used by the scheduler, the store
// and the ttasched command.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Formats lists the handler formats NewLogger understands.
var Formats = []string{"text", "json"}

// NewLogger creates a logger that writes to stderr. Stdout is left for
// schedules and tables.
//
// level: slog level (DEBUG, INFO, WARN, ERROR)
// format: "text" or "json"
func NewLogger(level slog.Level, format string) *slog.Logger {
	return NewLoggerWithWriter(level, format, os.Stderr)
}

// NewLoggerWithWriter creates a logger writing to the given writer.
func NewLoggerWithWriter(level slog.Level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel converts a level name to slog.Level. Unknown names give
// slog.LevelInfo.
func ParseLevel(s string) slog.Level {
	level, err := ParseLevelStrict(s)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevelStrict is ParseLevel that reports unknown names.
func ParseLevelStrict(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
