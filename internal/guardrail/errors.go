package guardrail

import (
	"fmt"

	"github.com/zero-day-ai/forensiq/internal/types"
)

// Guardrail error codes
const (
	ErrGuardrailBlocked       types.ErrorCode = "GUARDRAIL_BLOCKED"
	ErrGuardrailConfigInvalid types.ErrorCode = "GUARDRAIL_CONFIG_INVALID"
	ErrGuardrailExecution     types.ErrorCode = "GUARDRAIL_EXECUTION"
)

// BlockedError reports the guardrail that stopped a chain.
type BlockedError struct {
	GuardrailName string
	GuardrailType GuardrailType
	Reason        string
	Flags         []string
}

// Error implements the error interface
func (e *BlockedError) Error() string {
	return fmt.Sprintf("guardrail '%s' (%s) blocked operation: %s",
		e.GuardrailName, e.GuardrailType, e.Reason)
}

// NewBlockedError creates a new BlockedError
func NewBlockedError(name string, guardType GuardrailType, reason string, flags ...string) *BlockedError {
	return &BlockedError{
		GuardrailName: name,
		GuardrailType: guardType,
		Reason:        reason,
		Flags:         flags,
	}
}

// NewConfigError reports an invalid guardrail configuration.
func NewConfigError(message string, cause error) *types.ForensiqError {
	return types.WrapError(ErrGuardrailConfigInvalid, message, cause)
}
