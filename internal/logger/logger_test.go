package logger

import (
	"log/slog"
	"testing"
)

// TestParseLevel verifies that level names map to the expected slog levels
// and that unknown names fall back to info.
func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"mixed case", "DEBUG", slog.LevelDebug},
		{"unknown", "verbose", slog.LevelInfo},
		{"empty", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.level); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

// TestIsValidLevel verifies level name validation.
func TestIsValidLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
		if !IsValidLevel(level) {
			t.Errorf("IsValidLevel(%q) = false, want true", level)
		}
	}
	for _, level := range []string{"", "trace", "fatal"} {
		if IsValidLevel(level) {
			t.Errorf("IsValidLevel(%q) = true, want false", level)
		}
	}
}

// TestGetWithoutInit verifies that Get returns a usable logger even when
// Init was never called.
func TestGetWithoutInit(t *testing.T) {
	globalLogger = nil
	log := Get()
	if log == nil {
		t.Fatal("Get() returned nil")
	}
	// Must not panic.
	log.Info("logger smoke test")
}

// TestInitFormats verifies that Init accepts both output formats.
func TestInitFormats(t *testing.T) {
	for _, format := range []string{"text", "json", "TEXT", "unknown"} {
		Init("debug", format)
		if Get() == nil {
			t.Fatalf("Get() returned nil after Init(debug, %q)", format)
		}
	}
}
