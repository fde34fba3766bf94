package guardrail

import (
	"context"

	"github.com/zero-day-ai/forensiq/internal/audit"
	"github.com/zero-day-ai/forensiq/internal/types"
)

// FilterResult is the outcome of output filtering. When Allowed is false,
// Response is RefusalMessage and never agent text.
type FilterResult struct {
	Allowed           bool            `json:"allowed"`
	Response          string          `json:"response"`
	Flags             []string        `json:"flags"`
	BlockReason       string          `json:"block_reason,omitempty"`
	HallucinationRisk types.RiskLevel `json:"hallucination_risk,omitempty"`
	Issues            []string        `json:"issues"`
}

// OutputFilter decides what part of an agent response reaches the user.
type OutputFilter struct {
	stage
}

// NewOutputFilter creates a filter running chain under policies.
func NewOutputFilter(chain *Chain, policies PolicySource, opts ...StageOption) *OutputFilter {
	return &OutputFilter{stage: newStage(chain, policies, opts)}
}

// Filter runs the output chain and audits exactly one entry.
func (f *OutputFilter) Filter(ctx context.Context, response, role, originalQuery string) FilterResult {
	trail, err := f.chain.ProcessOutput(ctx, GuardrailOutput{
		Content: response,
		Query:   originalQuery,
		Role:    role,
		Policy:  f.policies.Lookup(role),
	})

	result := FilterResult{
		Allowed:           err == nil,
		Response:          trail.Content,
		Flags:             nonNil(trail.Flags),
		HallucinationRisk: trail.RiskLevel,
		Issues:            nonNil(trail.Issues),
	}

	if err != nil {
		withheld := trail.Content
		result.Response = RefusalMessage
		result.BlockReason = blockReason(err)
		f.recorder.Record(ctx, audit.Decision{
			EventType:   audit.EventOutputBlocked,
			Role:        role,
			Input:       originalQuery,
			Output:      &withheld,
			Blocked:     true,
			BlockReason: result.BlockReason,
		})
		f.metrics.RecordGuardrailDecision(ctx, "output", "blocked")
		f.logger.InfoContext(ctx, "response blocked",
			"role", role,
			"reason", result.BlockReason,
		)
		return result
	}

	delivered := result.Response
	f.recorder.Record(ctx, audit.Decision{
		EventType: audit.EventOutputDelivered,
		Role:      role,
		Input:     originalQuery,
		Output:    &delivered,
	})
	f.metrics.RecordGuardrailDecision(ctx, "output", "delivered")
	return result
}
