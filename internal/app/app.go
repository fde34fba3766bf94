// Package app assembles the forensiq components from a Config: logging,
// telemetry, the audit store, the role table, the oracle, both guardrail
// stages, the evidence store, the agent and the pipeline.
package app

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/zero-day-ai/forensiq/internal/agent"
	"github.com/zero-day-ai/forensiq/internal/audit"
	"github.com/zero-day-ai/forensiq/internal/config"
	"github.com/zero-day-ai/forensiq/internal/evidence"
	"github.com/zero-day-ai/forensiq/internal/guardrail"
	"github.com/zero-day-ai/forensiq/internal/guardrail/builtin"
	"github.com/zero-day-ai/forensiq/internal/observability"
	"github.com/zero-day-ai/forensiq/internal/oracle"
	"github.com/zero-day-ai/forensiq/internal/pipeline"
	"github.com/zero-day-ai/forensiq/internal/rbac"
	"github.com/zero-day-ai/forensiq/internal/types"
)

// App holds the wired components. Fields are read-only after New.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Metrics    *observability.Metrics
	Roles      *rbac.Table
	Audit      audit.Store
	Recorder   *audit.Recorder
	Evidence   *evidence.Store
	Oracle     oracle.Oracle
	Classifier *oracle.Classifier
	Validator  *guardrail.InputValidator
	Filter     *guardrail.OutputFilter
	Agent      agent.Agent
	Pipeline   *pipeline.Pipeline

	tracerProvider *sdktrace.TracerProvider
	meterProvider  metric.MeterProvider
	closeLog       func() error
}

type options struct {
	logger     *slog.Logger
	oracle     oracle.Oracle
	agent      agent.Agent
	auditStore audit.Store
	evidence   *evidence.Store
}

// Option overrides a component New would otherwise build from the config.
type Option func(*options)

// WithLogger uses logger instead of building one from the logging section.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithOracle replaces the Ollama oracle. The rate limit still applies.
func WithOracle(or oracle.Oracle) Option {
	return func(o *options) {
		o.oracle = or
	}
}

// WithAgent replaces the default LLM agent.
func WithAgent(a agent.Agent) Option {
	return func(o *options) {
		o.agent = a
	}
}

// WithAuditStore replaces the configured audit backend. The App closes it.
func WithAuditStore(s audit.Store) Option {
	return func(o *options) {
		o.auditStore = s
	}
}

// WithEvidenceStore shares an existing evidence store.
func WithEvidenceStore(s *evidence.Store) Option {
	return func(o *options) {
		o.evidence = s
	}
}

// New wires every component described by cfg. On error, anything already
// opened is closed.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (_ *App, err error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
		}
	}()

	if err := a.initLogging(o); err != nil {
		return nil, err
	}
	if err := a.initTelemetry(ctx); err != nil {
		return nil, err
	}

	a.Roles, err = cfg.RoleTable()
	if err != nil {
		return nil, types.WrapError(types.CONFIG_VALIDATION_FAILED, "invalid role table", err)
	}
	ext, err := cfg.Extensions()
	if err != nil {
		return nil, types.WrapError(types.CONFIG_VALIDATION_FAILED, "invalid guardrail extensions", err)
	}

	a.Audit = o.auditStore
	if a.Audit == nil {
		a.Audit, err = OpenAuditStore(ctx, cfg.Audit)
		if err != nil {
			return nil, err
		}
	}
	a.Recorder = audit.NewRecorder(a.Audit,
		audit.WithLogger(a.Logger.With("component", "audit")),
		audit.WithMetrics(a.Metrics),
	)

	if err := a.initOracle(o); err != nil {
		return nil, err
	}
	if err := a.initStages(ext); err != nil {
		return nil, err
	}

	a.Evidence = o.evidence
	if a.Evidence == nil {
		a.Evidence = evidence.NewStore()
	}

	a.Agent = o.agent
	if a.Agent == nil {
		a.Agent = agent.NewLLMAgent(a.Oracle, agent.LLMConfig{
			MaxEvidenceFiles: cfg.Agent.MaxEvidenceFiles,
			MaxCharsPerFile:  cfg.Agent.MaxCharsPerFile,
		}, agent.WithLogger(a.Logger.With("component", "agent")))
	}

	a.Pipeline = pipeline.New(a.Validator, a.Agent, a.Filter,
		pipeline.WithEvidenceStore(a.Evidence),
		pipeline.WithRecorder(a.Recorder),
		pipeline.WithAgentTimeout(cfg.Agent.Timeout),
		pipeline.WithLogger(a.Logger.With("component", "pipeline")),
		pipeline.WithMetrics(a.Metrics),
	)

	a.Logger.DebugContext(ctx, "forensiq initialized",
		"audit_backend", cfg.Audit.Backend,
		"audit_path", cfg.Audit.Path,
		"oracle_model", cfg.Oracle.Model,
		"roles", len(a.Roles.Roles()),
	)
	return a, nil
}

func (a *App) initLogging(o *options) error {
	if o.logger != nil {
		a.Logger = o.logger
		return nil
	}
	logger, closeLog, err := observability.NewLogger(a.Config.Logging)
	if err != nil {
		return types.WrapError(types.CONFIG_VALIDATION_FAILED, "failed to initialize logging", err)
	}
	a.Logger = logger
	a.closeLog = closeLog
	return nil
}

func (a *App) initTelemetry(ctx context.Context) error {
	tp, err := observability.InitTracing(ctx, a.Config.Tracing)
	if err != nil {
		return err
	}
	a.tracerProvider = tp

	mp, err := observability.InitMetrics(ctx, a.Config.Metrics)
	if err != nil {
		return err
	}
	a.meterProvider = mp

	a.Metrics, err = observability.NewMetricsFromProvider(mp)
	return err
}

func (a *App) initOracle(o *options) error {
	cfg := a.Config.Oracle
	base := o.oracle
	if base == nil {
		ollama, err := oracle.NewOllamaOracle(oracle.OllamaConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return err
		}
		base = ollama
	}
	a.Oracle = oracle.NewRateLimited(base, cfg.RateLimit, cfg.Burst)
	a.Classifier = oracle.NewClassifier(a.Oracle,
		oracle.WithTimeout(cfg.Timeout),
		oracle.WithLogger(a.Logger.With("component", "oracle")),
		oracle.WithMetrics(a.Metrics),
	)
	return nil
}

func (a *App) initStages(ext builtin.Extensions) error {
	inputLayers, err := builtin.InputGuardrails(a.Classifier, ext)
	if err != nil {
		return err
	}
	outputLayers, err := builtin.OutputGuardrails(a.Classifier, ext)
	if err != nil {
		return err
	}

	logger := a.Logger.With("component", "guardrail")
	stageOpts := []guardrail.StageOption{
		guardrail.WithRecorder(a.Recorder),
		guardrail.WithStageMetrics(a.Metrics),
		guardrail.WithStageLogger(logger),
	}
	a.Validator = guardrail.NewInputValidator(
		guardrail.NewChain(inputLayers...).WithLogger(logger), a.Roles, stageOpts...)
	a.Filter = guardrail.NewOutputFilter(
		guardrail.NewChain(outputLayers...).WithLogger(logger), a.Roles, stageOpts...)
	return nil
}

// OpenAuditStore opens the backend named by cfg.
func OpenAuditStore(ctx context.Context, cfg config.AuditConfig) (audit.Store, error) {
	switch cfg.Backend {
	case config.AuditBackendSQLite:
		return audit.NewSQLiteStore(ctx, cfg.Path)
	case config.AuditBackendJSONL, "":
		return audit.NewJSONLStore(cfg.Path, audit.WithSync(cfg.Sync))
	default:
		return nil, types.NewError(types.AUDIT_OPEN_FAILED, "unknown audit backend: "+cfg.Backend)
	}
}

// Close flushes telemetry and closes the audit store and log file.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Audit != nil {
		errs = append(errs, a.Audit.Close())
	}
	if a.tracerProvider != nil {
		errs = append(errs, observability.ShutdownTracing(ctx, a.tracerProvider))
	}
	if a.meterProvider != nil {
		errs = append(errs, observability.ShutdownMetrics(ctx, a.meterProvider))
	}
	if a.closeLog != nil {
		errs = append(errs, a.closeLog())
	}
	return errors.Join(errs...)
}
