package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	Get().Info(context.Background(), "decoded trace", String("file", "a.sor"), Duration("took", time.Second))
	out := buf.String()
	if !bytes.Contains([]byte(out), []byte("file=a.sor")) {
		t.Errorf("expected field in output, got %q", out)
	}
	if !bytes.Contains([]byte(out), []byte("source=")) {
		t.Errorf("expected source field in output, got %q", out)
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug output leaked at info level: %q", buf.String())
	}

	if err := SetLevelString("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Get().Debug(ctx, "shown")
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Errorf("expected debug output, got %q", buf.String())
	}

	if err := SetLevelString("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
	_ = SetLevelString("info")
}

func TestLoggerNamedAndWith(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithJSON(true)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	l := Named("decoder").With(String("run_id", "r1"))
	l.Warn(context.Background(), "decode failed", Error(errors.New("boom")))

	out := buf.String()
	for _, want := range []string{`"run_id":"r1"`, `"decoder"`, `"error":"boom"`} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("expected %s in %q", want, out)
		}
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info(context.Background(), "nothing")
	l.Named("x").With(Int("n", 1)).Error(context.Background(), "still nothing")
}
