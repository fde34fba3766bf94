package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/forensiq/internal/contextkeys"
)

// sensitiveFields are attribute keys whose values never reach a log sink.
// Keys are compared lowercased with underscores removed.
var sensitiveFields = map[string]bool{
	"prompt":     true,
	"prompts":    true,
	"apikey":     true,
	"secret":     true,
	"secretkey":  true,
	"password":   true,
	"token":      true,
	"credential": true,
}

// ParseLevel converts a configured level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// NewLogger builds a slog.Logger from cfg. The returned close function
// releases the log file when Output is a path and is a no-op otherwise.
func NewLogger(cfg LoggingConfig) (*slog.Logger, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, WrapObservabilityError(ErrInvalidConfig, "invalid logging configuration", err)
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, WrapObservabilityError(ErrInvalidConfig, "invalid logging configuration", err)
	}

	var (
		w       io.Writer
		closeFn = func() error { return nil }
	)
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closeFn = f.Close
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = NewJSONHandler(w, level)
	} else {
		handler = NewTextHandler(w, level)
	}

	return slog.New(NewTraceHandler(handler)), closeFn, nil
}

// NewJSONHandler creates a new JSON log handler with the specified output and level.
func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// NewTextHandler creates a new text log handler with the specified output and level.
func NewTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// TraceHandler decorates records with the request_id and case_id of the
// pipeline run and the trace_id and span_id of the span in the logging
// context. It redacts sensitive attributes at info level and above.
type TraceHandler struct {
	next slog.Handler
}

// NewTraceHandler wraps next.
func NewTraceHandler(next slog.Handler) *TraceHandler {
	return &TraceHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *TraceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	redact := r.Level >= slog.LevelInfo
	r.Attrs(func(a slog.Attr) bool {
		if redact {
			a = redactAttr(a)
		}
		out.AddAttrs(a)
		return true
	})

	if id := contextkeys.GetRequestID(ctx); id != "" {
		out.AddAttrs(slog.String("request_id", id))
	}
	if id := contextkeys.GetCaseID(ctx); id != "" {
		out.AddAttrs(slog.String("case_id", id))
	}

	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		out.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}

	return h.next.Handle(ctx, out)
}

// WithAttrs implements slog.Handler. Attributes bound to the logger are
// always redacted since their eventual level is unknown.
func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &TraceHandler{next: h.next.WithAttrs(redacted)}
}

// WithGroup implements slog.Handler.
func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{next: h.next.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, "[REDACTED]")
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		redacted := make([]any, 0, len(group))
		for _, ga := range group {
			redacted = append(redacted, redactAttr(ga))
		}
		return slog.Group(a.Key, redacted...)
	}
	return a
}

func isSensitiveKey(key string) bool {
	normalized := strings.ToLower(strings.ReplaceAll(key, "_", ""))
	return sensitiveFields[normalized]
}
