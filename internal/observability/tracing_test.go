package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/mohamed-services/AgentLang/internal/types"
)

func shutdown(t *testing.T, tp *sdktrace.TracerProvider) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, ShutdownTracing(ctx, tp))
}

func TestInitTracing_Disabled(t *testing.T) {
	tp, err := InitTracing(context.Background(), TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, tp)
	shutdown(t, tp)
}

func TestInitTracing_Noop(t *testing.T) {
	tp, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Provider: "noop", SampleRate: 1})
	require.NoError(t, err)
	require.NotNil(t, tp)
	shutdown(t, tp)
}

func TestInitTracing_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		cfg  TracingConfig
	}{
		{name: "invalid provider", cfg: TracingConfig{Enabled: true, Provider: "zipkin", Endpoint: "x", ServiceName: "s", SampleRate: 1}},
		{name: "sample rate too high", cfg: TracingConfig{Enabled: true, Provider: "otlp", Endpoint: "x", ServiceName: "s", SampleRate: 2}},
		{name: "missing endpoint", cfg: TracingConfig{Enabled: true, Provider: "otlp", ServiceName: "s", SampleRate: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, err := InitTracing(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Nil(t, tp)
			assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
		})
	}
}

func TestInitTracing_ExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	exporter := tracetest.NewInMemoryExporter()
	cfg := DefaultTracingConfig()
	cfg.Enabled = true

	tp, err := InitTracing(context.Background(), cfg,
		WithSpanExporter(exporter),
		WithSampler(sdktrace.AlwaysSample()),
		WithBatchTimeout(10*time.Millisecond),
	)
	require.NoError(t, err)

	_, span := otel.Tracer(TracerName).Start(context.Background(), "council.run")
	span.End()

	require.NoError(t, tp.ForceFlush(context.Background()))
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "council.run", spans[0].Name)

	var serviceName string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			serviceName = kv.Value.AsString()
		}
	}
	assert.Equal(t, DefaultServiceName, serviceName)

	shutdown(t, tp)
}

func TestShutdownTracing_Nil(t *testing.T) {
	assert.NoError(t, ShutdownTracing(context.Background(), nil))
}
