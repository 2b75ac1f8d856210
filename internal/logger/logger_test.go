package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"none", LevelNone},
		{"rubbish", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestContextLogAttrs(t *testing.T) {
	ctx := ContextWithRequestLogger(context.Background(), slog.Default())

	ContextWithLogAttrs(ctx, slog.String("message_id", "abc"))
	ContextWithLogAttrs(ctx, slog.Int("status", 200))

	attrs := ContextLogAttrs(ctx)
	if len(attrs) != 2 {
		t.Fatalf("got %d attrs, want 2", len(attrs))
	}
	if attrs[0].Key != "message_id" {
		t.Errorf("first attr key = %q, want message_id", attrs[0].Key)
	}

	// no collector: must not panic
	ContextWithLogAttrs(context.Background(), slog.String("k", "v"))
	if got := ContextLogAttrs(context.Background()); got != nil {
		t.Errorf("expected nil attrs without collector, got %v", got)
	}
}
