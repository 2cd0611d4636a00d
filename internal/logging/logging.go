// Package logging provides a simple logger interface for the application.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the logging surface components depend on. Arguments are
// alternating key/value pairs, slog style.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// New builds a logger writing to stderr. level is one of "debug", "info",
// "warn", "error"; format is "text" or "json". Unknown values fall back to
// info and text.
func New(level, format string) Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler
	switch format {
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	default:
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

// Nop returns a logger that discards everything. Tests use this.
func Nop() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
