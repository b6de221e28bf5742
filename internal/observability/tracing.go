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

	"github.com/mohamed-services/AgentLang/internal/types"
	"github.com/mohamed-services/AgentLang/pkg/version"
)

const (
	defaultBatchTimeout = 5 * time.Second

	// DefaultServiceName is the service.name resource attribute.
	DefaultServiceName = "agentlang-council"

	// TracerName is the instrumentation scope used for council spans.
	TracerName = "github.com/mohamed-services/AgentLang/council"
)

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

// WithSpanExporter replaces the otlp exporter. Used by tests to capture spans in memory.
func WithSpanExporter(exporter sdktrace.SpanExporter) TracingOption {
	return func(o *tracingOptions) {
		o.exporter = exporter
	}
}

// InitTracing initializes distributed tracing and installs the result as the global
// tracer provider. When cfg.Enabled is false, or the provider is "noop", it returns a
// provider without exporters that records nothing.
func InitTracing(ctx context.Context, cfg TracingConfig, opts ...TracingOption) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return sdktrace.NewTracerProvider(), nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, types.WrapError(types.CONFIG_VALIDATION_FAILED, "invalid tracing configuration", err)
	}
	if strings.EqualFold(cfg.Provider, "noop") {
		return sdktrace.NewTracerProvider(), nil
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
		res, err := newResource(ctx, cfg.ServiceName)
		if err != nil {
			return nil, err
		}
		options.resource = res
	}

	exporter := options.exporter
	switch strings.ToLower(cfg.Provider) {
	case "otlp":
		if exporter == nil {
			otlpOpts := []otlptracegrpc.Option{
				otlptracegrpc.WithEndpoint(cfg.Endpoint),
			}
			if cfg.Insecure {
				otlpOpts = append(otlpOpts, otlptracegrpc.WithInsecure())
			}

			var err error
			exporter, err = otlptracegrpc.New(ctx, otlpOpts...)
			if err != nil {
				return nil, types.WrapError(types.OBSERVABILITY_EXPORTER_FAILED,
					fmt.Sprintf("failed to create trace exporter for %s", cfg.Endpoint), err)
			}
		}

	default:
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("unsupported tracing provider: %s", cfg.Provider))
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

// ShutdownTracing flushes pending spans and shuts the provider down.
func ShutdownTracing(ctx context.Context, provider *sdktrace.TracerProvider) error {
	if provider == nil {
		return nil
	}

	if err := provider.Shutdown(ctx); err != nil {
		return types.WrapError(types.OBSERVABILITY_SHUTDOWN_FAILED, "failed to shutdown tracer provider", err)
	}

	return nil
}

func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	// resource.Default() carries its own schema URL; merging it here conflicts.
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
		return nil, types.WrapError(types.OBSERVABILITY_EXPORTER_FAILED, "failed to create resource", err)
	}
	return res, nil
}
