package app

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var out bytes.Buffer
	log := NewLogger(LoggerConfig{Level: LogLevelWarn, Output: &out})

	log.Debug("quiet")
	log.Info("quiet")
	log.Warn("loud")
	log.Error("loud")

	got := out.String()
	if strings.Contains(got, "quiet") {
		t.Errorf("below-level messages leaked: %q", got)
	}
	if strings.Count(got, "loud") != 2 {
		t.Errorf("expected 2 messages, got: %q", got)
	}
}

func TestLoggerFormatting(t *testing.T) {
	var out bytes.Buffer
	log := NewLogger(LoggerConfig{Level: LogLevelDebug, Output: &out, Prefix: "jive"})

	log.Info("opened %s", "file.json")
	got := out.String()
	if !strings.Contains(got, "[INFO] jive: opened file.json") {
		t.Errorf("unexpected format: %q", got)
	}
}

func TestLoggerWithField(t *testing.T) {
	var out bytes.Buffer
	log := NewLogger(LoggerConfig{Level: LogLevelDebug, Output: &out})

	log.WithComponent("buffer").Info("loaded")
	if !strings.Contains(out.String(), "component=buffer") {
		t.Errorf("field missing: %q", out.String())
	}

	// The parent logger is not mutated by WithField.
	out.Reset()
	log.Info("plain")
	if strings.Contains(out.String(), "component") {
		t.Errorf("parent logger gained a field: %q", out.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"bogus", LogLevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNullLogger(t *testing.T) {
	// Must be safe to use without initialization.
	NullLogger.Info("dropped")
	NullLogger.Error("dropped")
}
