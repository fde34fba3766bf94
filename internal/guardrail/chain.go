package guardrail

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/forensiq/internal/observability"
	"github.com/zero-day-ai/forensiq/internal/types"
)

// Trail accumulates what a chain run produced. On a block it holds
// everything recorded up to and including the blocking guardrail.
type Trail struct {
	Content   string
	Flags     []string
	RiskLevel types.RiskLevel
	Warning   string
	Issues    []string
}

func (t *Trail) absorb(r GuardrailResult) {
	t.Flags = append(t.Flags, r.Flags...)
	if r.RiskLevel != "" {
		t.RiskLevel = r.RiskLevel
	}
	if r.Warning != "" {
		t.Warning = r.Warning
	}
	t.Issues = append(t.Issues, r.Issues...)
	if r.Action != GuardrailActionBlock && r.ModifiedContent != "" {
		t.Content = r.ModifiedContent
	}
}

// Chain executes guardrails in order. The first block stops the chain and
// later guardrails never run.
type Chain struct {
	guardrails []Guardrail
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewChain creates a chain over the given guardrails.
func NewChain(guardrails ...Guardrail) *Chain {
	return &Chain{
		guardrails: guardrails,
		tracer:     observability.Tracer(),
		logger:     slog.Default(),
	}
}

// WithTracer sets the OpenTelemetry tracer for the chain
func (c *Chain) WithTracer(tracer trace.Tracer) *Chain {
	if tracer != nil {
		c.tracer = tracer
	}
	return c
}

// WithLogger sets the logger for the chain
func (c *Chain) WithLogger(logger *slog.Logger) *Chain {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// ProcessInput runs every guardrail's CheckInput on the query.
// - On block: return the trail and a *BlockedError
// - On error: treat as a block flagged GUARDRAIL_ERROR
// - On redact or warn: record flags, log, continue
func (c *Chain) ProcessInput(ctx context.Context, input GuardrailInput) (Trail, error) {
	return c.run(ctx, "guardrail.check_input", input.Query, func(ctx context.Context, g Guardrail, content string) (GuardrailResult, error) {
		in := input
		in.Query = content
		return g.CheckInput(ctx, in)
	})
}

// ProcessOutput runs every guardrail's CheckOutput on the response. Each
// guardrail sees the content as rewritten by the ones before it.
func (c *Chain) ProcessOutput(ctx context.Context, output GuardrailOutput) (Trail, error) {
	return c.run(ctx, "guardrail.check_output", output.Content, func(ctx context.Context, g Guardrail, content string) (GuardrailResult, error) {
		out := output
		out.Content = content
		return g.CheckOutput(ctx, out)
	})
}

type checkFunc func(ctx context.Context, g Guardrail, content string) (GuardrailResult, error)

func (c *Chain) run(ctx context.Context, spanName, content string, check checkFunc) (Trail, error) {
	trail := Trail{Content: content}

	for _, g := range c.guardrails {
		result, err := c.check(ctx, spanName, g, trail.Content, check)
		if err != nil {
			c.logger.ErrorContext(ctx, "guardrail failed",
				"guardrail", g.Name(),
				"error", err,
			)
			result = NewBlockResult(fmt.Sprintf("Guardrail '%s' failed: %v", g.Name(), err), FlagGuardrailError)
		}

		trail.absorb(result)

		switch result.Action {
		case GuardrailActionBlock:
			return trail, NewBlockedError(g.Name(), g.Type(), result.Reason, result.Flags...)

		case GuardrailActionRedact:
			c.logger.InfoContext(ctx, "guardrail redacted content",
				"guardrail", g.Name(),
				"reason", result.Reason,
			)

		case GuardrailActionWarn:
			c.logger.WarnContext(ctx, "guardrail warning",
				"guardrail", g.Name(),
				"reason", result.Reason,
			)
		}
	}

	return trail, nil
}

func (c *Chain) check(ctx context.Context, spanName string, g Guardrail, content string, check checkFunc) (GuardrailResult, error) {
	ctx, span := c.tracer.Start(ctx, spanName,
		trace.WithAttributes(
			attribute.String("guardrail.name", g.Name()),
			attribute.String("guardrail.type", string(g.Type())),
		),
	)
	defer span.End()

	result, err := check(ctx, g, content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	span.SetAttributes(
		attribute.String("guardrail.action", string(result.Action)),
		attribute.String("guardrail.reason", result.Reason),
		attribute.StringSlice("guardrail.flags", result.Flags),
	)
	return result, nil
}

// Add returns a new chain with additional guardrails
func (c *Chain) Add(guardrails ...Guardrail) *Chain {
	newGuardrails := make([]Guardrail, len(c.guardrails)+len(guardrails))
	copy(newGuardrails, c.guardrails)
	copy(newGuardrails[len(c.guardrails):], guardrails)

	return &Chain{
		guardrails: newGuardrails,
		tracer:     c.tracer,
		logger:     c.logger,
	}
}

// Guardrails returns a copy of the chain's guardrails
func (c *Chain) Guardrails() []Guardrail {
	result := make([]Guardrail, len(c.guardrails))
	copy(result, c.guardrails)
	return result
}
