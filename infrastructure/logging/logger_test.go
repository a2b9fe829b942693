package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", "json", &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("hidden")
	logger.Info("conversion complete", zap.String("format", "wav"))
	_ = logger.Sync()

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not a single JSON line: %q", buf.String())
	}
	if entry["msg"] != "conversion complete" || entry["format"] != "wav" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("debug", "console", &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("decode strategy failed", zap.String("strategy", "direct"))
	_ = logger.Sync()

	if !bytes.Contains(buf.Bytes(), []byte("decode strategy failed")) {
		t.Errorf("console output missing message: %q", buf.String())
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New("loud", "console", &bytes.Buffer{}); err == nil {
		t.Error("invalid level should fail")
	}
	if _, err := New("info", "xml", &bytes.Buffer{}); err == nil {
		t.Error("invalid format should fail")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zap.DebugLevel},
		{"", zap.InfoLevel},
		{"INFO", zap.InfoLevel},
		{"warning", zap.WarnLevel},
		{"error", zap.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}
