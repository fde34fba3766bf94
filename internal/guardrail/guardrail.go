// Package guardrail gates every forensic query and every agent answer
// behind an ordered, short-circuiting chain of checks.
package guardrail

import "context"

// GuardrailType defines the category of guardrail
type GuardrailType string

const (
	GuardrailTypeLength   GuardrailType = "length"
	GuardrailTypePattern  GuardrailType = "pattern"
	GuardrailTypeTopic    GuardrailType = "topic"
	GuardrailTypeSemantic GuardrailType = "semantic"
	GuardrailTypePII      GuardrailType = "pii"
	GuardrailTypeRole     GuardrailType = "role"
)

// Guardrail defines the interface for safety checks. A guardrail that only
// applies to one stage returns an allow result from the other method.
type Guardrail interface {
	Name() string
	Type() GuardrailType
	CheckInput(ctx context.Context, input GuardrailInput) (GuardrailResult, error)
	CheckOutput(ctx context.Context, output GuardrailOutput) (GuardrailResult, error)
}
