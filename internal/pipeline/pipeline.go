// Package pipeline runs an investigator query through input validation,
// the agent and output filtering, in that order, and reports which stage
// decided the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/forensiq/internal/agent"
	"github.com/zero-day-ai/forensiq/internal/audit"
	"github.com/zero-day-ai/forensiq/internal/contextkeys"
	"github.com/zero-day-ai/forensiq/internal/evidence"
	"github.com/zero-day-ai/forensiq/internal/guardrail"
	"github.com/zero-day-ai/forensiq/internal/observability"
	"github.com/zero-day-ai/forensiq/internal/types"
)

// DefaultAgentTimeout bounds the agent call when none is configured.
const DefaultAgentTimeout = 120 * time.Second

// Pipeline sequences the guardrail stages around an agent. A Pipeline is
// safe for concurrent use; runs share only the audit sink and the
// evidence store.
type Pipeline struct {
	validator    *guardrail.InputValidator
	agent        agent.Agent
	filter       *guardrail.OutputFilter
	evidence     *evidence.Store
	recorder     *audit.Recorder
	agentTimeout time.Duration
	logger       *slog.Logger
	tracer       trace.Tracer
	metrics      *observability.Metrics
	now          func() time.Time
}

// Option is a functional option for configuring the Pipeline.
type Option func(*Pipeline)

// WithEvidenceStore sets where evidence is read when a request carries none.
func WithEvidenceStore(s *evidence.Store) Option {
	return func(p *Pipeline) {
		p.evidence = s
	}
}

// WithRecorder sets the recorder for AGENT_ERROR entries. The validator
// and filter audit their own decisions and should share this recorder.
func WithRecorder(r *audit.Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// WithAgentTimeout bounds each agent call. Non-positive values keep the default.
func WithAgentTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.agentTimeout = d
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTracer overrides the tracer for pipeline.run and agent.run spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithMetrics records run durations.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// New creates a pipeline. validator, a and filter are required.
func New(validator *guardrail.InputValidator, a agent.Agent, filter *guardrail.OutputFilter, opts ...Option) *Pipeline {
	p := &Pipeline{
		validator:    validator,
		agent:        a,
		filter:       filter,
		agentTimeout: DefaultAgentTimeout,
		logger:       slog.Default(),
		tracer:       observability.Tracer(),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one request and returns its result. It never returns an
// error: every failure is a terminal state of the result.
func (p *Pipeline) Run(ctx context.Context, req Request) Result {
	start := time.Now()
	if req.CaseID == "" {
		req.CaseID = evidence.DefaultCaseID
	}

	res := Result{
		RequestID: uuid.NewString(),
		Query:     req.Query,
		Role:      req.Role,
		CaseID:    req.CaseID,
		Timestamp: p.now(),
		State:     StateStart,
		Warnings:  []string{},
	}

	ctx = contextkeys.WithRequestID(ctx, res.RequestID)
	ctx = contextkeys.WithCaseID(ctx, req.CaseID)
	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("pipeline.request_id", res.RequestID),
			attribute.String("pipeline.role", req.Role),
			attribute.String("pipeline.case_id", req.CaseID),
		),
	)
	defer func() {
		span.SetAttributes(
			attribute.String("pipeline.state", res.State.String()),
			attribute.Bool("pipeline.blocked", res.Blocked),
		)
		span.End()
		p.metrics.RecordPipelineDuration(ctx, time.Since(start), res.State.String())
		p.logger.InfoContext(ctx, "pipeline finished",
			"role", res.Role,
			"state", res.State.String(),
			"blocked", res.Blocked,
		)
	}()

	validation := p.validator.Validate(ctx, req.Query, req.Role)
	res.Stages.InputValidation = &validation
	if !validation.Allowed {
		res.State = StateBlockedAtInput
		res.FinalResponse = "Query blocked: " + validation.BlockReason
		res.Blocked = true
		return res
	}
	res.State = StateInputChecked

	records := req.Evidence
	if records == nil && p.evidence != nil {
		records = p.evidence.Snapshot(req.CaseID)
	}

	answer, record, err := p.runAgent(ctx, req, records)
	res.Stages.AgentExecution = &record
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		res.State = StateAgentError
		res.FinalResponse = "Agent error: " + err.Error()
		res.Blocked = true
		res.Err = err
		p.recorder.Record(ctx, audit.Decision{
			EventType:   audit.EventAgentError,
			Role:        req.Role,
			Input:       req.Query,
			Blocked:     true,
			BlockReason: res.FinalResponse,
		})
		p.logger.WarnContext(ctx, "agent failed",
			"error", err,
		)
		return res
	}
	res.State = StateAgentExecuted

	filtered := p.filter.Filter(ctx, answer.Text, req.Role, req.Query)
	res.Stages.OutputFiltering = &filtered
	res.State = StateOutputChecked
	if !filtered.Allowed {
		res.State = StateBlockedAtOutput
		res.FinalResponse = filtered.Response
		res.Blocked = true
		return res
	}

	res.State = StateDone
	res.FinalResponse = filtered.Response
	res.Warnings = append(res.Warnings, filtered.Flags...)
	return res
}

type agentReply struct {
	answer agent.Answer
	err    error
}

// runAgent calls the agent under the agent timeout. The call runs in its
// own goroutine so an agent that ignores cancellation cannot hold the run
// past the deadline.
func (p *Pipeline) runAgent(ctx context.Context, req Request, records []evidence.Record) (agent.Answer, AgentRecord, error) {
	ctx, span := p.tracer.Start(ctx, "agent.run",
		trace.WithAttributes(attribute.Int("agent.evidence_files", len(records))))
	defer span.End()

	start := time.Now()
	record := AgentRecord{Status: AgentStatusError}
	if p.agent == nil {
		err := types.NewError(types.AGENT_FAILED, "no agent configured")
		record.Error = err.Error()
		return agent.Answer{}, record, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.agentTimeout)
	defer cancel()

	done := make(chan agentReply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- agentReply{err: fmt.Errorf("agent panicked: %v", r)}
			}
		}()
		answer, err := p.agent.Run(ctx, req.Query, req.CaseID, records)
		done <- agentReply{answer: answer, err: err}
	}()

	var reply agentReply
	select {
	case reply = <-done:
	case <-ctx.Done():
		reply.err = ctx.Err()
	}
	record.Duration = time.Since(start)

	if err := reply.err; err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = types.WrapError(types.AGENT_TIMEOUT, fmt.Sprintf("agent timed out after %s", p.agentTimeout), err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		record.Error = err.Error()
		return agent.Answer{}, record, err
	}

	record.Status = AgentStatusSuccess
	record.Sources = reply.answer.Sources
	return reply.answer, record, nil
}
