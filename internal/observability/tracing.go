package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials"

	"github.com/zero-day-ai/forensiq/pkg/version"
)

const (
	defaultBatchTimeout = 5 * time.Second
	defaultServiceName  = "forensiq"

	// InstrumentationName scopes every tracer and meter the service creates.
	InstrumentationName = "github.com/zero-day-ai/forensiq"
)

// Tracer returns the service tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// TracingOption is a functional option for configuring tracing initialization.
type TracingOption func(*tracingOptions)

type tracingOptions struct {
	sampler      sdktrace.Sampler
	resource     *resource.Resource
	batchTimeout time.Duration
	exporter     sdktrace.SpanExporter
}

// WithSampler sets a custom sampler for the tracer provider.
func WithSampler(sampler sdktrace.Sampler) TracingOption {
	return func(o *tracingOptions) {
		o.sampler = sampler
	}
}

// WithResource sets a custom resource for the tracer provider.
func WithResource(res *resource.Resource) TracingOption {
	return func(o *tracingOptions) {
		o.resource = res
	}
}

// WithBatchTimeout sets the maximum time between batch exports.
func WithBatchTimeout(timeout time.Duration) TracingOption {
	return func(o *tracingOptions) {
		o.batchTimeout = timeout
	}
}

// WithSpanExporter replaces the OTLP exporter, mainly for tests.
func WithSpanExporter(exporter sdktrace.SpanExporter) TracingOption {
	return func(o *tracingOptions) {
		o.exporter = exporter
	}
}

// InitTracing initializes distributed tracing and installs the provider
// globally. When cfg.Enabled is false or the provider is noop, the returned
// provider records nothing.
func InitTracing(ctx context.Context, cfg TracingConfig, opts ...TracingOption) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return sdktrace.NewTracerProvider(), nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, WrapObservabilityError(ErrInvalidConfig, "invalid tracing configuration", err)
	}

	options := &tracingOptions{
		batchTimeout: defaultBatchTimeout,
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.sampler == nil {
		options.sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))
	}

	if options.resource == nil {
		serviceName := cfg.ServiceName
		if serviceName == "" {
			serviceName = defaultServiceName
		}

		res, err := resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(version.Version),
			),
			resource.WithFromEnv(),
			resource.WithTelemetrySDK(),
		)
		if err != nil {
			return nil, WrapObservabilityError(ErrExporterConnection, "failed to create resource", err)
		}
		options.resource = res
	}

	exporter := options.exporter
	if exporter == nil {
		switch strings.ToLower(cfg.Provider) {
		case "noop":
			return sdktrace.NewTracerProvider(), nil

		case "otlp":
			otlpOpts := []otlptracegrpc.Option{
				otlptracegrpc.WithEndpoint(cfg.Endpoint),
			}

			switch {
			case cfg.TLSCertFile != "":
				creds, err := credentials.NewClientTLSFromFile(cfg.TLSCertFile, "")
				if err != nil {
					return nil, WrapObservabilityError(ErrExporterConnection, "failed to load TLS credentials", err)
				}
				otlpOpts = append(otlpOpts, otlptracegrpc.WithTLSCredentials(creds))
			case cfg.InsecureMode:
				otlpOpts = append(otlpOpts, otlptracegrpc.WithInsecure())
			default:
				otlpOpts = append(otlpOpts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(nil)))
			}

			var err error
			exporter, err = otlptracegrpc.New(ctx, otlpOpts...)
			if err != nil {
				return nil, NewExporterConnectionError(cfg.Endpoint, err)
			}

		default:
			return nil, NewObservabilityError(ErrInvalidConfig, fmt.Sprintf("unsupported tracing provider: %s", cfg.Provider))
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(options.batchTimeout),
		),
		sdktrace.WithSampler(options.sampler),
		sdktrace.WithResource(options.resource),
	)

	otel.SetTracerProvider(tp)

	return tp, nil
}

// ShutdownTracing flushes pending spans and stops the provider.
func ShutdownTracing(ctx context.Context, provider *sdktrace.TracerProvider) error {
	if provider == nil {
		return nil
	}

	if err := provider.Shutdown(ctx); err != nil {
		return WrapObservabilityError(ErrShutdownTimeout, "failed to shutdown tracer provider", err)
	}

	return nil
}
