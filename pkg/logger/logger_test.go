package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"off":   LevelOff,
		"error": slog.LevelError,
		"WARN":  slog.LevelWarn,
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"trace": LevelTrace,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestNew_WritesJSONWithContext(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Options{Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer closer.Close()

	log.With("run", "abc").Debug("worker reporting in", "pid", 42)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("Expected JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "worker reporting in" || rec["run"] != "abc" {
		t.Errorf("Unexpected record: %v", rec)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Options{Level: "error", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	log.Info("hidden")
	log.Error("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("Level filtering broken: %q", out)
	}
}

func TestNew_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verboten.log")
	log, closer, err := New(Options{Level: "info", File: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	log.Info("service terminated")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected log file: %v", err)
	}
	if !strings.Contains(string(data), "service terminated") {
		t.Errorf("Log file missing record: %q", data)
	}
}

func TestNew_BadOptions(t *testing.T) {
	if _, _, err := New(Options{Level: "nope"}); err == nil {
		t.Error("Expected error for bad level")
	}
	if _, _, err := New(Options{Format: "xml"}); err == nil {
		t.Error("Expected error for bad format")
	}
}

func TestNop(t *testing.T) {
	// Should not panic
	Nop().With("k", "v").Error("discarded")
}
