package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for forensiq errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"
)

// Audit store error codes
const (
	AUDIT_OPEN_FAILED  ErrorCode = "AUDIT_OPEN_FAILED"
	AUDIT_WRITE_FAILED ErrorCode = "AUDIT_WRITE_FAILED"
	AUDIT_READ_FAILED  ErrorCode = "AUDIT_READ_FAILED"
)

// Oracle error codes
const (
	ORACLE_UNAVAILABLE     ErrorCode = "ORACLE_UNAVAILABLE"
	ORACLE_TIMEOUT         ErrorCode = "ORACLE_TIMEOUT"
	ORACLE_VERDICT_INVALID ErrorCode = "ORACLE_VERDICT_INVALID"
)

// Agent and evidence error codes
const (
	AGENT_FAILED       ErrorCode = "AGENT_FAILED"
	AGENT_TIMEOUT      ErrorCode = "AGENT_TIMEOUT"
	EVIDENCE_INVALID   ErrorCode = "EVIDENCE_INVALID"
	EVIDENCE_NOT_FOUND ErrorCode = "EVIDENCE_NOT_FOUND"
)

// ForensiqError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type ForensiqError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *ForensiqError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *ForensiqError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
func (e *ForensiqError) Is(target error) bool {
	var fe *ForensiqError
	if errors.As(target, &fe) {
		return e.Code == fe.Code
	}
	return false
}

// NewError creates a new non-retryable ForensiqError with the given code and message.
func NewError(code ErrorCode, message string) *ForensiqError {
	return &ForensiqError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable ForensiqError.
// Use this for transient errors that may succeed on retry (e.g., network timeouts).
func NewRetryableError(code ErrorCode, message string) *ForensiqError {
	return &ForensiqError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable ForensiqError that wraps an existing error.
func WrapError(code ErrorCode, message string, cause error) *ForensiqError {
	return &ForensiqError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the error code of the first ForensiqError in err's chain,
// or an empty code if there is none.
func CodeOf(err error) ErrorCode {
	var fe *ForensiqError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}
