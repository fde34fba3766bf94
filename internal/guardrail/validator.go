package guardrail

import (
	"context"

	"github.com/zero-day-ai/forensiq/internal/audit"
	"github.com/zero-day-ai/forensiq/internal/types"
)

// ValidationResult is the outcome of input validation.
type ValidationResult struct {
	Allowed     bool            `json:"allowed"`
	Query       string          `json:"query"`
	Role        string          `json:"user_role"`
	Flags       []string        `json:"flags"`
	BlockReason string          `json:"block_reason,omitempty"`
	RiskLevel   types.RiskLevel `json:"risk_level,omitempty"`
	Warning     string          `json:"warning,omitempty"`
}

// InputValidator decides whether a query may reach the agent.
type InputValidator struct {
	stage
}

// NewInputValidator creates a validator running chain under policies.
// A nil policies argument uses the built-in role table.
func NewInputValidator(chain *Chain, policies PolicySource, opts ...StageOption) *InputValidator {
	return &InputValidator{stage: newStage(chain, policies, opts)}
}

// Validate runs the input chain and audits exactly one entry.
func (v *InputValidator) Validate(ctx context.Context, query, role string) ValidationResult {
	trail, err := v.chain.ProcessInput(ctx, GuardrailInput{
		Query:  query,
		Role:   role,
		Policy: v.policies.Lookup(role),
	})

	result := ValidationResult{
		Allowed:   err == nil,
		Query:     query,
		Role:      role,
		Flags:     nonNil(trail.Flags),
		RiskLevel: trail.RiskLevel,
		Warning:   trail.Warning,
	}

	if err != nil {
		result.BlockReason = blockReason(err)
		v.recorder.Record(ctx, audit.Decision{
			EventType:   audit.EventInputBlocked,
			Role:        role,
			Input:       query,
			Blocked:     true,
			BlockReason: result.BlockReason,
		})
		v.metrics.RecordGuardrailDecision(ctx, "input", "blocked")
		v.logger.InfoContext(ctx, "query blocked",
			"role", role,
			"reason", result.BlockReason,
			"flags", result.Flags,
		)
		return result
	}

	v.recorder.Record(ctx, audit.Decision{
		EventType: audit.EventInputAllowed,
		Role:      role,
		Input:     query,
	})
	v.metrics.RecordGuardrailDecision(ctx, "input", "allowed")
	return result
}
