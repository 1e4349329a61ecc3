package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"prod", Options{Env: "prod"}, false},
		{"local debug", Options{Env: "local", Level: "debug"}, false},
		{"unknown env", Options{Env: "staging"}, true},
		{"bad level", Options{Env: "local", Level: "loud"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if l != nil {
				_ = l.Sync()
			}
		})
	}
}

func TestFrom_Default(t *testing.T) {
	if From(context.Background()) == nil {
		t.Fatal("expected nop logger")
	}
}

func TestWith_AddsFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := Into(context.Background(), zap.New(core))

	ctx = With(ctx, zap.String("photo_id", "42"))
	From(ctx).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].ContextMap()["photo_id"] != "42" {
		t.Errorf("fields = %v", entries[0].ContextMap())
	}
}
