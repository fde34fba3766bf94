package builtin

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/zero-day-ai/forensiq/internal/guardrail"
)

// LengthLimit blocks queries longer than the role's MaxQueryLength.
// Length is counted in runes.
type LengthLimit struct{}

// NewLengthLimit creates a length guardrail.
func NewLengthLimit() *LengthLimit {
	return &LengthLimit{}
}

// Name returns the unique name of this guardrail instance.
func (l *LengthLimit) Name() string {
	return "length_limit"
}

// Type returns the guardrail type.
func (l *LengthLimit) Type() guardrail.GuardrailType {
	return guardrail.GuardrailTypeLength
}

// CheckInput blocks the query when it exceeds the policy limit.
func (l *LengthLimit) CheckInput(ctx context.Context, input guardrail.GuardrailInput) (guardrail.GuardrailResult, error) {
	n := utf8.RuneCountInString(input.Query)
	if limit := input.Policy.MaxQueryLength; n > limit {
		return guardrail.NewBlockResult(fmt.Sprintf("Query exceeds maximum length for role '%s' (%d > %d)", input.Role, n, limit)), nil
	}
	return guardrail.NewAllowResult(), nil
}

// CheckOutput allows everything; responses are not length limited.
func (l *LengthLimit) CheckOutput(ctx context.Context, output guardrail.GuardrailOutput) (guardrail.GuardrailResult, error) {
	return guardrail.NewAllowResult(), nil
}
