package guardrail

import (
	"github.com/zero-day-ai/forensiq/internal/rbac"
	"github.com/zero-day-ai/forensiq/internal/types"
)

// GuardrailInput represents a query to be checked
type GuardrailInput struct {
	Query  string      `json:"query"`
	Role   string      `json:"role"` // role as requested, before fallback
	Policy rbac.Policy `json:"policy"`
}

// GuardrailOutput represents an agent response to be checked
type GuardrailOutput struct {
	Content string      `json:"content"`
	Query   string      `json:"query"`
	Role    string      `json:"role"`
	Policy  rbac.Policy `json:"policy"`
}

// GuardrailAction defines the action taken by a guardrail
type GuardrailAction string

const (
	GuardrailActionAllow  GuardrailAction = "allow"
	GuardrailActionBlock  GuardrailAction = "block"
	GuardrailActionRedact GuardrailAction = "redact"
	GuardrailActionWarn   GuardrailAction = "warn"
)

// GuardrailResult represents the result of a guardrail check.
// ModifiedContent, when non-empty, replaces the content seen by later
// guardrails; it is honoured for every action except block.
type GuardrailResult struct {
	Action          GuardrailAction `json:"action"`
	Reason          string          `json:"reason,omitempty"`
	ModifiedContent string          `json:"modified_content,omitempty"`
	Flags           []string        `json:"flags,omitempty"`
	RiskLevel       types.RiskLevel `json:"risk_level,omitempty"`
	Warning         string          `json:"warning,omitempty"`
	Issues          []string        `json:"issues,omitempty"`
}

// IsBlocked returns true if the action is block
func (r GuardrailResult) IsBlocked() bool {
	return r.Action == GuardrailActionBlock
}

// WithFlags returns r with flags appended.
func (r GuardrailResult) WithFlags(flags ...string) GuardrailResult {
	r.Flags = append(append([]string(nil), r.Flags...), flags...)
	return r
}

// NewAllowResult creates a result that allows the operation
func NewAllowResult() GuardrailResult {
	return GuardrailResult{Action: GuardrailActionAllow}
}

// NewBlockResult creates a result that blocks the operation
func NewBlockResult(reason string, flags ...string) GuardrailResult {
	return GuardrailResult{
		Action: GuardrailActionBlock,
		Reason: reason,
		Flags:  flags,
	}
}

// NewRedactResult creates a result that rewrites the content
func NewRedactResult(reason, modifiedContent string, flags ...string) GuardrailResult {
	return GuardrailResult{
		Action:          GuardrailActionRedact,
		Reason:          reason,
		ModifiedContent: modifiedContent,
		Flags:           flags,
	}
}

// NewWarnResult creates a result that warns but allows the operation
func NewWarnResult(reason string, flags ...string) GuardrailResult {
	return GuardrailResult{
		Action: GuardrailActionWarn,
		Reason: reason,
		Flags:  flags,
	}
}
