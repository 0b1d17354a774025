package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"warn", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"info", log.InfoLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLoggerWithWriter(t *testing.T) {
	t.Setenv("CORRUPT_LOG_LEVEL", "warn")
	t.Setenv("CORRUPT_LOG_PREFIX", "test ")

	var buf bytes.Buffer
	lc := NewLoggerWithWriter(&buf)
	defer lc.Close()

	lc.Info("hidden")
	lc.Warn("shown", "offset", 0xC0)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "test") {
		t.Errorf("warn message missing or unprefixed: %q", out)
	}
}

func TestIsDebug(t *testing.T) {
	t.Setenv("CORRUPT_LOG_LEVEL", "debug")
	if !IsDebug() {
		t.Error("IsDebug() = false with CORRUPT_LOG_LEVEL=debug")
	}
	t.Setenv("CORRUPT_LOG_LEVEL", "info")
	if IsDebug() {
		t.Error("IsDebug() = true with CORRUPT_LOG_LEVEL=info")
	}
}
