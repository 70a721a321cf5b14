package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func newJSONLogger(t *testing.T, buf *bytes.Buffer) Logger {
	t.Helper()
	l, err := New(Config{Level: "info", Format: "json", Output: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	return entry
}

func TestRequestIDFromContext(t *testing.T) {
	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Fatalf("empty context carries %q", got)
	}

	ctx = WithRequestID(ctx, "01HZX3J6K9")
	if got := RequestIDFromContext(ctx); got != "01HZX3J6K9" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}

	//nolint:staticcheck // nil context is tolerated on purpose.
	if got := RequestIDFromContext(nil); got != "" {
		t.Errorf("nil context carries %q", got)
	}
}

func TestWithContext_StampsRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(t, &buf)

	ctx := WithRequestID(context.Background(), "req-42")
	l.WithContext(ctx).With("component", "gateway").Info("request completed")

	entry := decodeEntry(t, &buf)
	if entry["request_id"] != "req-42" {
		t.Errorf("request_id = %v", entry["request_id"])
	}
	if entry["component"] != "gateway" {
		t.Errorf("component = %v", entry["component"])
	}
}

func TestWithContext_NoRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(t, &buf)

	l.WithContext(context.Background()).Info("bootstrap")

	if _, ok := decodeEntry(t, &buf)["request_id"]; ok {
		t.Error("request_id logged without one in context")
	}
}
