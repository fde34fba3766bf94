package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/forensiq/internal/observability"
	"github.com/zero-day-ai/forensiq/internal/types"
)

// DefaultTimeout bounds a single consultation when none is configured.
const DefaultTimeout = 120 * time.Second

// Classifier asks an Oracle for input and output verdicts. It never returns
// an error: a failed consultation is reported as a failed Outcome.
type Classifier struct {
	oracle  Oracle
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithTimeout bounds each consultation. Non-positive values keep the default.
func WithTimeout(d time.Duration) ClassifierOption {
	return func(c *Classifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger for failed consultations.
func WithLogger(logger *slog.Logger) ClassifierOption {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics counts failed consultations by kind.
func WithMetrics(m *observability.Metrics) ClassifierOption {
	return func(c *Classifier) {
		c.metrics = m
	}
}

// WithTracer overrides the tracer used for oracle.complete spans.
func WithTracer(t trace.Tracer) ClassifierOption {
	return func(c *Classifier) {
		if t != nil {
			c.tracer = t
		}
	}
}

// NewClassifier creates a Classifier over o.
func NewClassifier(o Oracle, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		oracle:  o,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
		tracer:  observability.Tracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClassifyInput asks whether query is safe and forensics-related.
func (c *Classifier) ClassifyInput(ctx context.Context, query string) types.Outcome[InputVerdict] {
	return consult(ctx, c, "input", InputValidationPrompt(query), ParseInputVerdict)
}

// ReviewOutput asks whether response is faithful to query and free of harm.
func (c *Classifier) ReviewOutput(ctx context.Context, query, response string) types.Outcome[OutputVerdict] {
	return consult(ctx, c, "output", OutputReviewPrompt(query, response), ParseOutputVerdict)
}

type completion struct {
	text string
	err  error
	fail *types.Failure
}

func consult[T any](ctx context.Context, c *Classifier, purpose, prompt string, parse func(string) (T, error)) types.Outcome[T] {
	if c == nil || c.oracle == nil {
		return types.Failed[T](&types.Failure{Kind: types.FailureError, Err: fmt.Errorf("no oracle configured")})
	}

	ctx, span := c.tracer.Start(ctx, "oracle.complete",
		trace.WithAttributes(attribute.String("oracle.purpose", purpose)))
	defer span.End()

	outcome := complete(ctx, c.oracle, c.timeout, prompt, parse)
	if f := outcome.Failure(); f != nil {
		span.SetAttributes(attribute.String("oracle.failure", string(f.Kind)))
		span.SetStatus(codes.Error, f.Error())
		c.metrics.RecordOracleFailure(ctx, string(f.Kind))
		c.logger.WarnContext(ctx, "oracle consultation failed",
			"purpose", purpose,
			"kind", string(f.Kind),
			"error", f.Err,
		)
	}
	return outcome
}

// complete runs one bounded oracle call. The call runs in its own goroutine
// so an oracle that ignores cancellation cannot hold the caller past timeout.
func complete[T any](ctx context.Context, o Oracle, timeout time.Duration, prompt string, parse func(string) (T, error)) types.Outcome[T] {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan completion, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- completion{fail: &types.Failure{Kind: types.FailurePanic, Err: fmt.Errorf("oracle panicked: %v", r)}}
			}
		}()
		text, err := o.Complete(ctx, prompt)
		done <- completion{text: text, err: err}
	}()

	var res completion
	select {
	case res = <-done:
	case <-ctx.Done():
		return types.Failed[T](types.NewFailure(ctx.Err()))
	}

	switch {
	case res.fail != nil:
		return types.Failed[T](res.fail)
	case res.err != nil:
		return types.Failed[T](types.NewFailure(res.err))
	}

	v, err := parse(res.text)
	if err != nil {
		return types.Failed[T](&types.Failure{Kind: types.FailureMalformed, Err: err})
	}
	return types.Succeeded(v)
}
