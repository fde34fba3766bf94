// Package contextkeys provides shared context key definitions used across
// forensiq packages. It exists so that audit, logging and the pipeline can
// read request-scoped values without importing each other.
package contextkeys

import "context"

// Key is the type for all forensiq context keys.
type Key string

const (
	// RequestID stores the pipeline request identifier. Audit entries and
	// log records written under the context carry it.
	RequestID Key = "forensiq.request_id"

	// CaseID stores the case the request runs against.
	CaseID Key = "forensiq.case_id"
)

// WithRequestID returns a new context with the request ID set.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestID, requestID)
}

// GetRequestID retrieves the request ID from context.
// Returns empty string if not set.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestID).(string); ok {
		return v
	}
	return ""
}

// WithCaseID returns a new context with the case ID set.
func WithCaseID(ctx context.Context, caseID string) context.Context {
	return context.WithValue(ctx, CaseID, caseID)
}

// GetCaseID retrieves the case ID from context.
// Returns empty string if not set.
func GetCaseID(ctx context.Context) string {
	if v, ok := ctx.Value(CaseID).(string); ok {
		return v
	}
	return ""
}
