package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewWithWriter_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(NewWithWriter("production", &buf), "intake")

	logger.Info().Str("gift_id", "g1").Msg("contribution received")
	logger.Debug().Msg("hidden at info level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", lines[0], err)
	}
	if entry["component"] != "intake" || entry["gift_id"] != "g1" {
		t.Fatalf("expected component and gift_id fields, got %v", entry)
	}
}

func TestNewWithWriter_DevelopmentEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("development", &buf)

	logger.Debug().Msg("visible in development")
	if !strings.Contains(buf.String(), "visible in development") {
		t.Fatalf("expected debug message, got %q", buf.String())
	}
}

func TestCronAdapter_LogsErrorsWithFields(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewCronAdapter(NewWithWriter("production", &buf))

	adapter.Error(errors.New("boom"), "job failed", "job", "orphan-sweep")
	out := buf.String()
	if !strings.Contains(out, "boom") || !strings.Contains(out, "orphan-sweep") || !strings.Contains(out, `"component":"scheduler"`) {
		t.Fatalf("expected error, job field and component, got %q", out)
	}
}
