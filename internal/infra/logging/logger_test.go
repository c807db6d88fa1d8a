package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"eventbooking/internal/config"
)

func TestNewHonorsLevel(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "warn"
	var buf bytes.Buffer
	logger := newWithWriter(cfg, &buf)

	logger.Debug("hidden")
	logger.Warn("shown", "username", "alice")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "username=alice") {
		t.Fatalf("expected warn line, got %q", out)
	}
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "verbose-ish"
	logger := newWithWriter(cfg, &bytes.Buffer{})
	if !logger.IsInfo() || logger.IsDebug() {
		t.Fatalf("expected info level")
	}
}

func TestNewJSONFormat(t *testing.T) {
	cfg := config.Default()
	cfg.LogJSON = true
	var buf bytes.Buffer
	newWithWriter(cfg, &buf).Info("started", "addr", ":8080")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line: %v (%q)", err, buf.String())
	}
	if line["addr"] != ":8080" || line["@message"] != "started" {
		t.Fatalf("unexpected json line %v", line)
	}
}

func TestOrNull(t *testing.T) {
	if OrNull(nil) == nil {
		t.Fatalf("expected null logger")
	}
}
