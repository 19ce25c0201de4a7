package logutil

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// Helper function to create a logger that writes to a buffer for testing
func createTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestNewTimingLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := createTestLogger(&buf)

	done := NewTimingLogger(logger, time.Now().Add(-5*time.Millisecond), "backend request", "path", "/workouts/all")
	done()

	output := buf.String()
	for _, want := range []string{"backend request", "duration=", "path=/workouts/all", "level=DEBUG"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected log to contain %q, got: %s", want, output)
		}
	}
}

type ctxKey struct{}

// ctxHandler records whether it saw the value placed in the context.
type ctxHandler struct {
	slog.Handler
	seen *bool
}

func (h ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx.Value(ctxKey{}) != nil {
		*h.seen = true
	}
	return h.Handler.Handle(ctx, r)
}

func TestNewTimingLoggerContext_PassesContext(t *testing.T) {
	var buf bytes.Buffer
	seen := false
	logger := slog.New(ctxHandler{
		Handler: slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		seen:    &seen,
	})

	ctx := context.WithValue(context.Background(), ctxKey{}, "x")
	NewTimingLoggerContext(ctx, logger, time.Now(), "sync operation")()

	if !seen {
		t.Error("Expected handler to receive the caller's context")
	}
	if !strings.Contains(buf.String(), "sync operation") {
		t.Errorf("Expected log to contain message, got: %s", buf.String())
	}
}

func TestLogAndWrapErr_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := createTestLogger(&buf)

	originalErr := errors.New("disk full")
	wrappedErr := LogAndWrapErr(logger, "failed to persist token", originalErr, "store", "sqlite")

	if wrappedErr == nil {
		t.Fatal("Expected wrapped error, got nil")
	}
	if !errors.Is(wrappedErr, originalErr) {
		t.Error("Expected wrapped error to be identifiable with errors.Is")
	}
	if wrappedErr.Error() != "failed to persist token: disk full" {
		t.Errorf("Unexpected wrapped message: %s", wrappedErr.Error())
	}

	output := buf.String()
	if !strings.Contains(output, "level=ERROR") {
		t.Errorf("Expected log to be ERROR level, got: %s", output)
	}
	if !strings.Contains(output, "store=sqlite") {
		t.Errorf("Expected log to contain 'store=sqlite', got: %s", output)
	}
	if !strings.Contains(output, "err=\"disk full\"") {
		t.Errorf("Expected log to contain error, got: %s", output)
	}
}

func TestLogAndWrapErr_WithNilError(t *testing.T) {
	var buf bytes.Buffer
	logger := createTestLogger(&buf)

	if result := LogAndWrapErr(logger, "never logged", nil); result != nil {
		t.Errorf("Expected nil result for nil error, got: %v", result)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no log output for nil error, got: %s", buf.String())
	}
}

func TestDebugAndWrapErr(t *testing.T) {
	var buf bytes.Buffer
	logger := createTestLogger(&buf)

	originalErr := errors.New("Incorrect username or password")
	wrappedErr := DebugAndWrapErr(logger, "login rejected", originalErr, "username", "demo")

	if !errors.Is(wrappedErr, originalErr) {
		t.Error("Expected wrapped error to be identifiable with errors.Is")
	}
	output := buf.String()
	if !strings.Contains(output, "level=DEBUG") {
		t.Errorf("Expected log to be DEBUG level, got: %s", output)
	}
	if !strings.Contains(output, "username=demo") {
		t.Errorf("Expected log to contain 'username=demo', got: %s", output)
	}

	buf.Reset()
	if DebugAndWrapErr(logger, "nothing", nil) != nil || buf.Len() != 0 {
		t.Error("Expected nil error to be ignored")
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := createTestLogger(&buf)

	WithFields(logger, "component", "cache").Info("applied")

	output := buf.String()
	if !strings.Contains(output, "component=cache") {
		t.Errorf("Expected log to contain 'component=cache', got: %s", output)
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("Expected discard logger to be disabled at every level")
	}
	logger.With("a", 1).WithGroup("g").Error("dropped")
}

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(&buf, "json", slog.LevelInfo)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(h)
	logger.Debug("hidden")
	logger.Info("shown", "component", "cli")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("Expected debug to be filtered, got: %s", output)
	}
	if !strings.Contains(output, `"component":"cli"`) {
		t.Errorf("Expected JSON output, got: %s", output)
	}

	if _, err := NewHandler(&buf, "xml", slog.LevelInfo); err == nil {
		t.Error("Expected error for unknown format")
	}
}
