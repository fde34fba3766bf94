package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/forensiq/internal/guardrail"
	"github.com/zero-day-ai/forensiq/internal/types"
)

// Exit code constants for the CLI
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitError indicates a general error
	ExitError = 1
	// ExitBlocked indicates a guardrail refused the request
	ExitBlocked = 2
	// ExitTimeout indicates the operation timed out
	ExitTimeout = 3
	// ExitCancelled indicates the operation was cancelled
	ExitCancelled = 4
	// ExitConfigError indicates a configuration error
	ExitConfigError = 10
	// ExitAuditError indicates the audit store could not be opened or read
	ExitAuditError = 12
)

// CLIError represents a CLI-specific error with an exit code
type CLIError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// WrapError creates a new CLIError wrapping an existing error
func WrapError(code int, message string, err error) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewCLIError creates a new CLIError with the given code and message
func NewCLIError(code int, message string) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
	}
}

// Blocked reports a request refused by a guardrail stage.
func Blocked(reason string) *CLIError {
	return NewCLIError(ExitBlocked, "request blocked: "+reason)
}

// HandleError handles an error and returns the appropriate exit code
// It also prints the error message to the command's error output
func HandleError(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Check for context cancellation
	if errors.Is(err, context.Canceled) {
		cmd.PrintErrln("Operation cancelled")
		return ExitCancelled
	}

	// Check for context deadline exceeded
	if errors.Is(err, context.DeadlineExceeded) {
		cmd.PrintErrln("Operation timed out")
		return ExitTimeout
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		cmd.PrintErrln("Error:", cliErr.Message)
		if cliErr.Cause != nil {
			verboseFlag := cmd.Flag("verbose")
			if verboseFlag != nil && verboseFlag.Changed {
				cmd.PrintErrln("Cause:", cliErr.Cause)
			}
		}
		return cliErr.Code
	}

	var fErr *types.ForensiqError
	if errors.As(err, &fErr) {
		cmd.PrintErrln("Error:", fErr.Error())
		return mapErrorCodeToExitCode(fErr.Code)
	}

	var blocked *guardrail.BlockedError
	if errors.As(err, &blocked) {
		cmd.PrintErrln("Error:", blocked.Reason)
		return ExitBlocked
	}

	// Generic error
	cmd.PrintErrln("Error:", err)
	return ExitError
}

// mapErrorCodeToExitCode maps ForensiqError codes to CLI exit codes
func mapErrorCodeToExitCode(code types.ErrorCode) int {
	switch {
	case code == guardrail.ErrGuardrailConfigInvalid,
		strings.HasPrefix(string(code), "CONFIG_"):
		return ExitConfigError
	case strings.HasPrefix(string(code), "AUDIT_"):
		return ExitAuditError
	case code == types.AGENT_TIMEOUT, code == types.ORACLE_TIMEOUT:
		return ExitTimeout
	case code == guardrail.ErrGuardrailBlocked:
		return ExitBlocked
	default:
		return ExitError
	}
}

// IsVerbose checks if verbose mode is enabled via environment variable or flag
// This is used for panic recovery to determine if stack traces should be shown
func IsVerbose() bool {
	if os.Getenv("FORENSIQ_VERBOSE") != "" {
		return true
	}

	for _, arg := range os.Args {
		if arg == "-v" || arg == "--verbose" {
			return true
		}
	}

	return false
}
