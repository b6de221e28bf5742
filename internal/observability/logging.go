package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// ParseLevel converts a configured level name to a slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a slog.Logger from cfg that writes to w.
func NewLogger(cfg LoggingConfig, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Level)
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(NewJSONHandler(w, level))
	}
	return slog.New(NewTextHandler(w, level))
}

// OpenOutput resolves a configured output name to a writer. The returned close function
// is a no-op for stdout and stderr.
func OpenOutput(output string) (io.Writer, func() error, error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, func() error { return nil }, nil
	case "stdout":
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log output %s: %w", output, err)
	}
	return f, f.Close, nil
}

// NewJSONHandler creates a JSON log handler with the specified output and level.
func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// NewTextHandler creates a human-readable text log handler.
func NewTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// TracedLogger is a structured logger with automatic trace correlation.
// Every entry carries the run ID and case number, plus the OpenTelemetry trace and span
// IDs when the context holds a valid span.
type TracedLogger struct {
	logger          *slog.Logger
	runID           string
	caseNumber      int
	redactSensitive bool
}

// NewTracedLogger creates a TracedLogger for one council run.
func NewTracedLogger(handler slog.Handler, runID string, caseNumber int) *TracedLogger {
	return &TracedLogger{
		logger:          slog.New(handler),
		runID:           runID,
		caseNumber:      caseNumber,
		redactSensitive: true,
	}
}

// Debug logs a debug-level message. Debug entries are not redacted.
func (l *TracedLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Debug(msg, args...)
}

// Info logs an info-level message with sensitive values redacted.
func (l *TracedLogger) Info(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Info(msg, l.redact(args)...)
}

// Warn logs a warning-level message with sensitive values redacted.
func (l *TracedLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Warn(msg, l.redact(args)...)
}

// Error logs an error-level message with sensitive values redacted.
func (l *TracedLogger) Error(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Error(msg, l.redact(args)...)
}

// WithContext returns a slog.Logger carrying the run fields and, when ctx holds a valid
// span, its trace_id and span_id.
func (l *TracedLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := l.logger.With(
		slog.String("run_id", l.runID),
		slog.Int("case_number", l.caseNumber),
	)

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		logger = logger.With(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}

	return logger
}

func (l *TracedLogger) redact(args []any) []any {
	if !l.redactSensitive {
		return args
	}
	return redactSensitiveData(args)
}

var sensitiveFields = map[string]bool{
	"prompt":     true,
	"prompts":    true,
	"directive":  true,
	"apikey":     true,
	"secret":     true,
	"secretkey":  true,
	"password":   true,
	"token":      true,
	"credential": true,
}

// redactSensitiveData replaces the values of sensitive keys with "[REDACTED]".
// Keys match case-insensitively with underscores ignored. Odd-length args are returned
// unchanged.
func redactSensitiveData(args []any) []any {
	if len(args)%2 != 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 0; i < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			normalizedKey := strings.ToLower(strings.ReplaceAll(key, "_", ""))
			if sensitiveFields[normalizedKey] {
				redacted[i+1] = "[REDACTED]"
			}
		}
	}

	return redacted
}
