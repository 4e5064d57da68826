package logutil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := parseSlogLevel(in)
		if err != nil {
			t.Fatalf("parseSlogLevel(%q) error = %v", in, err)
		}
		if got != want {
			t.Fatalf("parseSlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseSlogLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewLoggerFromConfigJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLoggerFromConfig(loggerConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("newLoggerFromConfig() error = %v", err)
	}
	logger.Info("reply_wait_expired", "message_id", 123)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec["msg"] != "reply_wait_expired" {
		t.Fatalf("msg = %v", rec["msg"])
	}
}

func TestNewLoggerFromConfigRejectsUnknownFormat(t *testing.T) {
	_, err := newLoggerFromConfig(loggerConfig{Format: "xml"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("error = %v, want logging.format error", err)
	}
}
