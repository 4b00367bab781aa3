package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithProviderID(ctx, "prov-1")
	logg.Info(ctx, "hello")

	out := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"provider_id":"prov-1"`, `"service":"test"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output, got %s", want, out)
		}
	}
}

func TestParseLevelFallback(t *testing.T) {
	if got := ParseLevel("nonsense"); got != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %v", got)
	}
	if got := ParseLevel("debug"); got != zerolog.DebugLevel {
		t.Fatalf("expected debug, got %v", got)
	}
}
