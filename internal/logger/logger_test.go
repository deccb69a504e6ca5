package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/binrc/roma-client-go/internal/apierrors"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf})

	l.Debug("api request", "method", "GET", "request_id", "req-1")

	var entry map[string]any
	if err := json.NewDecoder(&buf).Decode(&entry); err != nil {
		t.Fatalf("failed to decode log output: %v", err)
	}
	for _, k := range []string{"time", "level", "msg", "method", "request_id"} {
		if _, ok := entry[k]; !ok {
			t.Errorf("expected key %q in log output", k)
		}
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Format: FormatJSON, Output: &buf})

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message logged at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn message missing")
	}
}

func TestNew_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Format: FormatText, NoColor: true, Output: &buf})

	l.Info("request failed", "status", 500)

	out := buf.String()
	if !strings.Contains(out, "request failed") || !strings.Contains(out, "status=500") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{" INFO ", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"trace", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %q, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestErrorAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))

	err := &apierrors.Error{Kind: apierrors.KindTimeout, Message: apierrors.MsgTimeout, Attempts: 3}
	l.Error("request failed", ErrorAttrs(err)...)

	var entry map[string]any
	if err := json.NewDecoder(&buf).Decode(&entry); err != nil {
		t.Fatalf("failed to decode log output: %v", err)
	}
	if entry["error_kind"] != "timeout" {
		t.Errorf("error_kind = %v, want timeout", entry["error_kind"])
	}
	if entry["retryable"] != true {
		t.Errorf("retryable = %v, want true", entry["retryable"])
	}
	if entry["attempts"] != float64(3) {
		t.Errorf("attempts = %v, want 3", entry["attempts"])
	}
}

func TestErrorAttrs_PlainError(t *testing.T) {
	attrs := ErrorAttrs(errors.New("boom"))
	if len(attrs) != 1 {
		t.Errorf("len(attrs) = %d, want 1", len(attrs))
	}
	if ErrorAttrs(nil) != nil {
		t.Error("ErrorAttrs(nil) should be nil")
	}
}
