package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	return logEntry
}

func TestZerologAdapter_Debug(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZerologAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel))

	zl.Debug("test message", "key1", "value1", "key2", 42)

	logEntry := decodeLine(t, &buf)
	if logEntry["level"] != "debug" {
		t.Errorf("expected level 'debug', got %v", logEntry["level"])
	}
	if logEntry["message"] != "test message" {
		t.Errorf("expected message 'test message', got %v", logEntry["message"])
	}
	if logEntry["key1"] != "value1" {
		t.Errorf("expected key1='value1', got %v", logEntry["key1"])
	}
	if logEntry["key2"] != float64(42) { // JSON numbers are float64
		t.Errorf("expected key2=42, got %v", logEntry["key2"])
	}
}

func TestZerologAdapter_Levels(t *testing.T) {
	tests := []struct {
		level string
		log   func(*ZerologAdapter)
	}{
		{"info", func(l *ZerologAdapter) { l.Info("m") }},
		{"warn", func(l *ZerologAdapter) { l.Warn("m") }},
		{"error", func(l *ZerologAdapter) { l.Error("m") }},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewZerologAdapter(zerolog.New(&buf)))
			if got := decodeLine(t, &buf)["level"]; got != tt.level {
				t.Errorf("expected level %q, got %v", tt.level, got)
			}
		})
	}
}

func TestZerologAdapter_ErrorValues(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZerologAdapter(zerolog.New(&buf))

	zl.Error("closing regions", "error", errors.New("busy"))

	if got := decodeLine(t, &buf)["error"]; got != "busy" {
		t.Errorf("expected error='busy', got %v", got)
	}
}

func TestZerologAdapter_OddKeyValues(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZerologAdapter(zerolog.New(&buf))

	zl.Info("odd", "key1", "value1", "orphan")
	logEntry := decodeLine(t, &buf)
	if _, ok := logEntry["orphan"]; ok {
		t.Error("orphan key should be dropped")
	}
	if logEntry["key1"] != "value1" {
		t.Errorf("expected key1='value1', got %v", logEntry["key1"])
	}
}

func TestNewZerolog(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZerolog(&buf, "warn", "influx")

	zl.Info().Msg("filtered")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %s", buf.String())
	}

	zl.Warn().Msg("kept")
	logEntry := decodeLine(t, &buf)
	if logEntry["component"] != "influx" {
		t.Errorf("expected component 'influx', got %v", logEntry["component"])
	}
	if _, ok := logEntry["time"]; !ok {
		t.Error("expected a timestamp")
	}
}

func TestNewZerolog_BadLevel(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZerolog(&buf, "loud", "db")
	zl.Info().Msg("kept")
	if buf.Len() == 0 {
		t.Fatal("unknown level should fall back to info")
	}
}
