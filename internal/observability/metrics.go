package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metric names emitted by the guardrail pipeline.
const (
	MetricGuardrailDecisions = "forensiq.guardrail.decisions"
	MetricOracleFailures     = "forensiq.oracle.failures"
	MetricAuditWriteFailures = "forensiq.audit.write_failures"
	MetricPipelineDuration   = "forensiq.pipeline.duration"
)

// InitMetrics returns a meter provider for cfg. Disabled metrics yield a
// no-op provider. The prometheus provider registers with the default
// Prometheus registry; serving /metrics is left to the caller.
func InitMetrics(ctx context.Context, cfg MetricsConfig) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		return noop.NewMeterProvider(), nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, WrapObservabilityError(ErrInvalidConfig, "invalid metrics configuration", err)
	}

	switch strings.ToLower(cfg.Provider) {
	case "prometheus":
		return initPrometheusProvider()
	case "otlp":
		return initOTLPProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported metrics provider: %s", cfg.Provider)
	}
}

func initPrometheusProvider() (metric.MeterProvider, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, NewExporterConnectionError("prometheus", err)
	}

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)), nil
}

func initOTLPProvider(ctx context.Context, cfg MetricsConfig) (metric.MeterProvider, error) {
	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, NewExporterConnectionError(cfg.Endpoint, err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter)
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), nil
}

// ShutdownMetrics flushes the provider when it supports shutdown.
func ShutdownMetrics(ctx context.Context, provider metric.MeterProvider) error {
	sdk, ok := provider.(*sdkmetric.MeterProvider)
	if !ok {
		return nil
	}
	if err := sdk.Shutdown(ctx); err != nil {
		return WrapObservabilityError(ErrShutdownTimeout, "failed to shutdown meter provider", err)
	}
	return nil
}

// Metrics holds the instruments the pipeline records into. A nil *Metrics
// records nothing, so components can treat metrics as optional.
type Metrics struct {
	decisions     metric.Int64Counter
	oracleFails   metric.Int64Counter
	auditFails    metric.Int64Counter
	pipelineTimer metric.Float64Histogram
}

// NewMetrics creates all instruments from meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	decisions, err := meter.Int64Counter(MetricGuardrailDecisions,
		metric.WithDescription("Guardrail stage decisions by stage and outcome"))
	if err != nil {
		return nil, NewMetricsRegistrationError(MetricGuardrailDecisions, err)
	}

	oracleFails, err := meter.Int64Counter(MetricOracleFailures,
		metric.WithDescription("Semantic oracle failures by kind"))
	if err != nil {
		return nil, NewMetricsRegistrationError(MetricOracleFailures, err)
	}

	auditFails, err := meter.Int64Counter(MetricAuditWriteFailures,
		metric.WithDescription("Audit entries that could not be persisted"))
	if err != nil {
		return nil, NewMetricsRegistrationError(MetricAuditWriteFailures, err)
	}

	pipelineTimer, err := meter.Float64Histogram(MetricPipelineDuration,
		metric.WithDescription("End-to-end pipeline run duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, NewMetricsRegistrationError(MetricPipelineDuration, err)
	}

	return &Metrics{
		decisions:     decisions,
		oracleFails:   oracleFails,
		auditFails:    auditFails,
		pipelineTimer: pipelineTimer,
	}, nil
}

// NewMetricsFromProvider creates instruments on the service meter of provider.
func NewMetricsFromProvider(provider metric.MeterProvider) (*Metrics, error) {
	return NewMetrics(provider.Meter(InstrumentationName))
}

// RecordGuardrailDecision counts one stage outcome such as ("input", "blocked").
func (m *Metrics) RecordGuardrailDecision(ctx context.Context, stage, outcome string) {
	if m == nil {
		return
	}
	m.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	))
}

// RecordOracleFailure counts one failed oracle consultation.
func (m *Metrics) RecordOracleFailure(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.oracleFails.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordAuditWriteFailure counts one audit entry that was not persisted.
func (m *Metrics) RecordAuditWriteFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.auditFails.Add(ctx, 1)
}

// RecordPipelineDuration records the duration of a run that ended in state.
func (m *Metrics) RecordPipelineDuration(ctx context.Context, d time.Duration, state string) {
	if m == nil {
		return
	}
	m.pipelineTimer.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("state", state)))
}
