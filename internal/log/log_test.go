package log_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/goliatone/go-formsuite/internal/log"
)

func TestNew_JSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := log.New(&buf, "json")
	logger.WithField("form", "contact").Info("rendered")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "rendered" || entry["form"] != "contact" || entry["level"] != "info" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]log.Level{"": log.InfoLevel, "debug": log.DebugLevel, "WARN": log.WarnLevel}
	for raw, want := range cases {
		got, err := log.ParseLevel(raw)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", raw, got, err, want)
		}
	}
	if _, err := log.ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
