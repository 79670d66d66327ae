package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func captureOutput(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetOutput(&bytes.Buffer{})
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t, LevelWarn)

	Debug("debug line")
	Info("info line")
	Warn("warn line")
	Error("error line", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Fatalf("expected debug/info to be suppressed, got %q", out)
	}
	if !strings.Contains(out, "[WARN] warn line") {
		t.Fatalf("expected warn line, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] error line err=boom") {
		t.Fatalf("expected error line with err, got %q", out)
	}
}

func TestKeyValueFormatting(t *testing.T) {
	buf := captureOutput(t, LevelDebug)

	Info("loaded", "collection", "events", "title", "Hack Day", "dangling")

	out := buf.String()
	if !strings.Contains(out, "collection=events") {
		t.Fatalf("missing plain kv: %q", out)
	}
	if !strings.Contains(out, `title="Hack Day"`) {
		t.Fatalf("expected quoted value with spaces: %q", out)
	}
	if strings.Contains(out, "dangling") {
		t.Fatalf("odd trailing key should be dropped: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
