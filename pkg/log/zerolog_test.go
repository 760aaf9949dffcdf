package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		mode    string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"WARN", zerolog.WarnLevel, false},
		{"Warning", zerolog.WarnLevel, false},
		{"ERROR", zerolog.ErrorLevel, false},
		{"verbose", zerolog.DebugLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.mode)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(zerolog.New(&buf))

	adapter.Info("tick",
		String("task", "digest"),
		Int("drained", 3),
		Bool("idle", false),
		Duration("took", time.Second),
		Err(errors.New("boom")),
	)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["message"] != "tick" {
		t.Errorf("message = %v, want tick", entry["message"])
	}
	if entry["task"] != "digest" {
		t.Errorf("task = %v, want digest", entry["task"])
	}
	if entry["drained"] != float64(3) {
		t.Errorf("drained = %v, want 3", entry["drained"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v, want boom", entry["error"])
	}
}

func TestZerologAdapter_DisabledLevel(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	adapter.Debug("hidden", String("k", "v"))
	adapter.Info("hidden")

	if buf.Len() != 0 {
		t.Errorf("disabled levels wrote %q", buf.String())
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	adapter := NewZerologAdapter()
	if OrNoop(adapter) != Logger(adapter) {
		t.Error("OrNoop should return the given logger")
	}
}
