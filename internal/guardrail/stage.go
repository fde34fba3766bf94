package guardrail

import (
	"errors"
	"log/slog"

	"github.com/zero-day-ai/forensiq/internal/audit"
	"github.com/zero-day-ai/forensiq/internal/observability"
	"github.com/zero-day-ai/forensiq/internal/rbac"
)

// PolicySource resolves a requested role to its policy. *rbac.Table
// implements it.
type PolicySource interface {
	Lookup(role string) rbac.Policy
}

// stage holds what the validator and the filter share.
type stage struct {
	chain    *Chain
	policies PolicySource
	recorder *audit.Recorder
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// StageOption configures an InputValidator or OutputFilter.
type StageOption func(*stage)

// WithRecorder sets where decisions are audited. Without it decisions are
// not persisted.
func WithRecorder(r *audit.Recorder) StageOption {
	return func(s *stage) {
		s.recorder = r
	}
}

// WithStageMetrics counts stage decisions.
func WithStageMetrics(m *observability.Metrics) StageOption {
	return func(s *stage) {
		s.metrics = m
	}
}

// WithStageLogger sets the stage logger.
func WithStageLogger(logger *slog.Logger) StageOption {
	return func(s *stage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func newStage(chain *Chain, policies PolicySource, opts []StageOption) stage {
	if chain == nil {
		chain = NewChain()
	}
	if policies == nil {
		policies = rbac.DefaultTable()
	}
	s := stage{
		chain:    chain,
		policies: policies,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// blockReason extracts the reason from a chain error.
func blockReason(err error) string {
	var blocked *BlockedError
	if errors.As(err, &blocked) {
		return blocked.Reason
	}
	return err.Error()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
