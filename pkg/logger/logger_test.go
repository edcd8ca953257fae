package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsCarryThroughDerivedContexts(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "gateway", Output: &buf, Level: zerolog.InfoLevel})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithSessionKey(ctx, "guest:abc")
	logg.Info(ctx, "cart.add")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not json: %v", err)
	}
	if entry["request_id"] != "req-1" {
		t.Fatalf("missing request_id: %v", entry)
	}
	if entry["session_key"] != "guest:abc" {
		t.Fatalf("missing session_key: %v", entry)
	}
	if entry["service"] != "gateway" {
		t.Fatalf("missing service field: %v", entry)
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	t.Parallel()

	if got := ParseLevel("nonsense"); got != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", got)
	}
	if got := ParseLevel(" DEBUG "); got != zerolog.DebugLevel {
		t.Fatalf("expected debug, got %s", got)
	}
}

func TestErrorIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "gateway", Output: &buf})

	logg.Error(context.Background(), "sync.failed", context.DeadlineExceeded)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not json: %v", err)
	}
	if entry["stack"] == nil || entry["stack"] == "" {
		t.Fatal("expected stack trace on error entries")
	}
}
