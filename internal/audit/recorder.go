package audit

import (
	"context"
	"log/slog"

	"github.com/zero-day-ai/forensiq/internal/contextkeys"
	"github.com/zero-day-ai/forensiq/internal/observability"
)

// Recorder writes decisions to a Sink on a best-effort basis. A failed write
// is logged and counted but never changes the decision being recorded.
type Recorder struct {
	sink    Sink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the logger used for write failures.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the instruments used to count write failures.
func WithMetrics(m *observability.Metrics) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// NewRecorder returns a Recorder writing to sink. A nil sink discards entries.
func NewRecorder(sink Sink, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		sink:   sink,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record builds an entry from d and appends it. The entry is returned even
// when the write fails.
func (r *Recorder) Record(ctx context.Context, d Decision) Entry {
	if d.RequestID == "" {
		d.RequestID = contextkeys.GetRequestID(ctx)
	}
	e := NewEntry(d)
	if r == nil || r.sink == nil {
		return e
	}

	// Persist even when the caller's context is already cancelled.
	if err := r.sink.Append(context.WithoutCancel(ctx), e); err != nil {
		r.logger.ErrorContext(ctx, "audit write failed",
			"entry_id", e.ID,
			"event_type", string(e.EventType),
			"error", err,
		)
		r.metrics.RecordAuditWriteFailure(ctx)
	}
	return e
}
