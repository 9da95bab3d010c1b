package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestLogger_ModuleAttribute(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l.Module("binary_tree").Info("built tree", "height", 4)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log line: %v", err)
	}
	if entry["module"] != "binary_tree" {
		t.Fatalf("expected module=binary_tree, got %v", entry["module"])
	}
	if entry["msg"] != "built tree" {
		t.Fatalf("expected msg=\"built tree\", got %v", entry["msg"])
	}
}

func TestVerbosityToLevel(t *testing.T) {
	cases := map[int]slog.Level{
		1: slog.LevelError,
		2: slog.LevelWarn,
		3: slog.LevelInfo,
		5: slog.LevelDebug,
	}
	for v, want := range cases {
		if got := VerbosityToLevel(v); got != want {
			t.Errorf("VerbosityToLevel(%d) = %v, want %v", v, got, want)
		}
	}
}
