package observability

import (
	"errors"
	"fmt"
)

// ObservabilityErrorCode represents error codes specific to telemetry setup.
type ObservabilityErrorCode string

const (
	// ErrExporterConnection indicates failure to create or reach an exporter.
	ErrExporterConnection ObservabilityErrorCode = "OBSERVABILITY_EXPORTER_CONNECTION"

	// ErrInvalidConfig indicates a tracing, metrics or logging section failed validation.
	ErrInvalidConfig ObservabilityErrorCode = "OBSERVABILITY_INVALID_CONFIG"

	// ErrMetricsRegistration indicates an instrument could not be created.
	ErrMetricsRegistration ObservabilityErrorCode = "OBSERVABILITY_METRICS_REGISTRATION"

	// ErrShutdownTimeout indicates providers did not flush before the deadline.
	ErrShutdownTimeout ObservabilityErrorCode = "OBSERVABILITY_SHUTDOWN_TIMEOUT"
)

// ObservabilityError represents a structured error for telemetry operations.
type ObservabilityError struct {
	Code      ObservabilityErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *ObservabilityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ObservabilityError) Unwrap() error {
	return e.Cause
}

// Is matches another ObservabilityError by code.
func (e *ObservabilityError) Is(target error) bool {
	var obsErr *ObservabilityError
	if errors.As(target, &obsErr) {
		return e.Code == obsErr.Code
	}
	return false
}

// NewObservabilityError creates a new non-retryable ObservabilityError.
func NewObservabilityError(code ObservabilityErrorCode, message string) *ObservabilityError {
	return &ObservabilityError{Code: code, Message: message}
}

// WrapObservabilityError creates an ObservabilityError that wraps cause.
func WrapObservabilityError(code ObservabilityErrorCode, message string, cause error) *ObservabilityError {
	return &ObservabilityError{Code: code, Message: message, Cause: cause}
}

// NewExporterConnectionError creates a retryable error for exporter failures.
func NewExporterConnectionError(endpoint string, cause error) *ObservabilityError {
	return &ObservabilityError{
		Code:      ErrExporterConnection,
		Message:   fmt.Sprintf("failed to connect to exporter at %s", endpoint),
		Retryable: true,
		Cause:     cause,
	}
}

// NewMetricsRegistrationError creates an error for instrument registration failures.
func NewMetricsRegistrationError(metricName string, cause error) *ObservabilityError {
	return &ObservabilityError{
		Code:    ErrMetricsRegistration,
		Message: fmt.Sprintf("failed to register metric '%s'", metricName),
		Cause:   cause,
	}
}
