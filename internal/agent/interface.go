// Package agent defines the investigation agent the pipeline consults
// between input validation and output filtering.
package agent

import (
	"context"

	"github.com/zero-day-ai/forensiq/internal/evidence"
)

// Agent answers a validated query about one case. Implementations may be
// slow and need not be idempotent; the pipeline never retries them.
type Agent interface {
	Run(ctx context.Context, query, caseID string, records []evidence.Record) (Answer, error)
}

// Func adapts a function to the Agent interface.
type Func func(ctx context.Context, query, caseID string, records []evidence.Record) (Answer, error)

// Run calls f.
func (f Func) Run(ctx context.Context, query, caseID string, records []evidence.Record) (Answer, error) {
	return f(ctx, query, caseID, records)
}
