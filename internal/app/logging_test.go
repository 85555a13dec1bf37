package app

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LogLevelDebug, "DEBUG"},
		{LogLevelInfo, "INFO"},
		{LogLevelWarn, "WARN"},
		{LogLevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel(%d).String() = %q, expected %q", tt.level, got, tt.expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"Info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"WARNING", LogLevelWarn},
		{"error", LogLevelError},
		{"unknown", LogLevelInfo},
		{"", LogLevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLogLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func newTestLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Level: level, Output: &buf, Prefix: "test"})
	l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return l, &buf
}

func TestLogger_Format(t *testing.T) {
	l, buf := newTestLogger(LogLevelDebug)
	l.WithFields(map[string]any{"b": 2, "a": "x"}).Info("opened %s", "doc.go")

	want := "2026-01-02T03:04:05.000 [INFO] test: opened doc.go {a=x, b=2}\n"
	if got := buf.String(); got != want {
		t.Errorf("line = %q, want %q", got, want)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := newTestLogger(LogLevelWarn)
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	out := buf.String()
	for _, s := range []string{"[DEBUG]", "[INFO]"} {
		if strings.Contains(out, s) {
			t.Errorf("output contains %s: %q", s, out)
		}
	}
	for _, s := range []string{"[WARN] test: warn", "[ERROR] test: error"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %s: %q", s, out)
		}
	}

	buf.Reset()
	l.SetLevel(LogLevelDebug)
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("SetLevel had no effect: %q", buf.String())
	}
}

func TestLogger_WithComponentSharesOutput(t *testing.T) {
	l, buf := newTestLogger(LogLevelInfo)
	child := l.WithComponent("router")
	child.Info("hello")
	l.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasSuffix(lines[0], "hello {component=router}") {
		t.Errorf("child line = %q", lines[0])
	}
	if strings.Contains(lines[1], "component") {
		t.Errorf("parent gained a field: %q", lines[1])
	}
}

func TestNullLogger(t *testing.T) {
	NullLogger.Error("nothing %d", 1)
	NullLogger.WithComponent("x").Warn("still nothing")
}

func TestDefaultLoggerConfig(t *testing.T) {
	cfg := DefaultLoggerConfig()
	if cfg.Level != LogLevelInfo || cfg.Prefix != "mdpreview" || cfg.Output == nil {
		t.Errorf("DefaultLoggerConfig() = %+v", cfg)
	}
}
