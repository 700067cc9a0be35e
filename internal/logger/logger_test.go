package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		env     string
		level   string
		wantErr bool
	}{
		{env: "prod"},
		{env: "local"},
		{env: "docker", level: "warn"},
		{env: "staging", wantErr: true},
		{env: "dev", level: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			l, err := NewLogger(tt.env, tt.level)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLogger: %v", err)
			}
			if tt.level == "warn" && l.Core().Enabled(zapcore.InfoLevel) {
				t.Error("info enabled despite warn override")
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	fallback := zap.NewExample()
	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Error("expected fallback without a context logger")
	}
	if got := FromContext(context.Background(), nil); got == nil {
		t.Error("expected nop logger, got nil")
	}

	scoped := zap.NewExample()
	ctx := ContextWithLogger(context.Background(), scoped)
	if got := FromContext(ctx, fallback); got != scoped {
		t.Error("expected the context logger")
	}
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))

	ctx = With(ctx, zap.String("user_id", "u1"))
	FromContext(ctx, nil).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	if got := entries[0].ContextMap()["user_id"]; got != "u1" {
		t.Errorf("user_id = %v", got)
	}

	bare := context.Background()
	if With(bare, zap.String("k", "v")) != bare {
		t.Error("With without a logger must return ctx unchanged")
	}
}
