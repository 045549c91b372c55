package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Debug("attempt completed", "hold_ms", 80)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["msg"] != "attempt completed" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	ts, ok := entry["time"].(string)
	if !ok {
		t.Fatalf("time missing: %v", entry)
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil || !strings.HasSuffix(ts, "Z") {
		t.Fatalf("time not UTC RFC3339: %q", ts)
	}
}

func TestNewTextLoggerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestNewRejectsUnknownOptions(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{" warning ", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		lvl, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tt.in, err)
		}
		if lvl.Level() != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, lvl.Level(), tt.want)
		}
	}
}

func TestNewFileWritesToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "strafe.log")
	fl, err := NewFile(path, Options{Level: "info"}, DefaultRotation)
	if err != nil {
		t.Fatalf("new file: %v", err)
	}
	fl.Logger.Info("input listener started", "source", "synthetic")
	if err := fl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "input listener started") {
		t.Fatalf("log file missing entry: %q", data)
	}
}

func TestNewFileEmptyPath(t *testing.T) {
	if _, err := NewFile("", Options{}, DefaultRotation); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
