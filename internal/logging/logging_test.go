package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"todoapi/internal/config"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, config.LogConfig{Level: "WARN", Format: "json"})

	log.Info("dropped")
	log.Warn("kept", "id", 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec["msg"] != "kept" || rec["id"] != float64(7) {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewTextDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, config.LogConfig{Level: "verbose", Format: "text"})

	log.Debug("hidden")
	log.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown") {
		t.Fatalf("unexpected output: %q", out)
	}
}
