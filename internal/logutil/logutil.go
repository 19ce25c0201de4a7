package logutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// NewTimingLogger returns a closure that logs a debug message with duration when called.
// Typical use is deferring the returned func at the top of a request:
//
//	defer logutil.NewTimingLogger(c.log, time.Now(), "backend request", "path", path)()
func NewTimingLogger(logger *slog.Logger, start time.Time, msg string, initialFields ...any) func() {
	return func() {
		finalFields := append(initialFields, "duration", time.Since(start).String())
		logger.Debug(msg, finalFields...)
	}
}

// NewTimingLoggerContext is NewTimingLogger for callers holding a context,
// so handlers that read values from it still see them.
func NewTimingLoggerContext(ctx context.Context, logger *slog.Logger, start time.Time, msg string, initialFields ...any) func() {
	return func() {
		finalFields := append(initialFields, "duration", time.Since(start).String())
		logger.DebugContext(ctx, msg, finalFields...)
	}
}

// LogAndWrapErr logs an error with context fields and wraps it with a message.
// It returns a wrapped error (with %w) so errors.Is / errors.As still work.
func LogAndWrapErr(logger *slog.Logger, msg string, err error, fields ...any) error {
	if err == nil {
		return nil
	}
	allFields := append(fields, "err", err)
	logger.Error(msg, allFields...)
	return fmt.Errorf("%s: %w", msg, err)
}

// DebugAndWrapErr logs an error at debug level with context fields and wraps it with a message.
// Use it for failures that are expected in normal operation, such as a rejected login.
func DebugAndWrapErr(logger *slog.Logger, msg string, err error, fields ...any) error {
	if err == nil {
		return nil
	}
	allFields := append(fields, "err", err)
	logger.Debug(msg, allFields...)
	return fmt.Errorf("%s: %w", msg, err)
}

// WithFields returns a new logger with the given fields pre-populated
func WithFields(logger *slog.Logger, fields ...any) *slog.Logger {
	return logger.With(fields...)
}

// Discard returns a logger that drops everything. Used as the default when
// no logger is configured.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// NewHandler builds the text or json handler named by format.
func NewHandler(w io.Writer, format string, level slog.Leveler) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.NewTextHandler(w, opts), nil
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
