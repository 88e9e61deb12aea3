// Package logger configures the process-wide structured logger used by the
// relay and the gateway. It wraps log/slog with level and format selection.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

var globalLogger *slog.Logger

// Init installs the global logger with the given level ("debug", "info",
// "warn", "error") and format ("text" or "json"). Unknown values fall back
// to info/text.
func Init(level, format string) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}

// Get returns the global logger, initializing a default text logger if Init
// was never called.
func Get() *slog.Logger {
	if globalLogger == nil {
		globalLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return globalLogger
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// IsValidLevel reports whether level names a supported logging level.
func IsValidLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
