package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
)

func TestNew_WritesJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "screener", slog.LevelInfo)
	log.Debug("hidden")
	log.Info("scan done", "scanned", 3)

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["service"] != "screener" {
		t.Errorf("service = %v", rec["service"])
	}
	if rec["msg"] != "scan done" {
		t.Errorf("msg = %v", rec["msg"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPassID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	if id := PassID(ctx); id != "" {
		t.Errorf("expected empty pass id, got %q", id)
	}

	id := NewPassID()
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("pass id %q is not a uuid: %v", id, err)
	}
	ctx = WithPassID(ctx, id)
	if got := PassID(ctx); got != id {
		t.Errorf("got %q, want %q", got, id)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "screener", slog.LevelInfo)

	FromContext(WithPassID(context.Background(), "p-1"), base).Info("x")
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["pass_id"] != "p-1" {
		t.Errorf("pass_id = %v", rec["pass_id"])
	}

	if FromContext(context.Background(), base) != base {
		t.Error("expected base logger without pass id")
	}
}
