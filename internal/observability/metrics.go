package observability

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/mohamed-services/AgentLang/internal/types"
)

// Metric names recorded by the council.
const (
	MetricRuns         = "council.runs"
	MetricVotes        = "council.votes"
	MetricJudgeLatency = "council.judge.latency"
	MetricJudgeRetries = "council.judge.retries"
)

// InitMetrics initializes a meter provider. A disabled config, or the "noop" provider,
// yields a no-op provider. For "otlp" the provider pushes to cfg.Endpoint over gRPC at
// cfg.Interval and must be shut down with ShutdownMetrics to flush.
func InitMetrics(ctx context.Context, cfg MetricsConfig) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		return noop.NewMeterProvider(), nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, types.WrapError(types.CONFIG_VALIDATION_FAILED, "invalid metrics config", err)
	}

	switch strings.ToLower(cfg.Provider) {
	case "noop":
		return noop.NewMeterProvider(), nil
	default:
		return initOTLPProvider(ctx, cfg)
	}
}

func initOTLPProvider(ctx context.Context, cfg MetricsConfig) (metric.MeterProvider, error) {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, types.WrapError(types.OBSERVABILITY_EXPORTER_FAILED, "failed to create otlp metric exporter", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	res, err := newResource(ctx, DefaultServiceName)
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	), nil
}

// ShutdownMetrics flushes and shuts down provider when it is an SDK provider.
func ShutdownMetrics(ctx context.Context, provider metric.MeterProvider) error {
	mp, ok := provider.(*sdkmetric.MeterProvider)
	if !ok {
		return nil
	}
	if err := mp.Shutdown(ctx); err != nil {
		return types.WrapError(types.OBSERVABILITY_SHUTDOWN_FAILED, "failed to shutdown meter provider", err)
	}
	return nil
}

// CouncilMetrics holds the instruments recorded during a run. It is safe for concurrent
// use; instruments are created once up front.
type CouncilMetrics struct {
	runs    metric.Int64Counter
	votes   metric.Int64Counter
	latency metric.Float64Histogram
	retries metric.Int64Counter
}

// NewCouncilMetrics creates the council instruments on meter.
func NewCouncilMetrics(meter metric.Meter) (*CouncilMetrics, error) {
	runs, err := meter.Int64Counter(MetricRuns,
		metric.WithDescription("Council runs by outcome"),
		metric.WithUnit("{run}"))
	if err != nil {
		return nil, metricsError(MetricRuns, err)
	}

	votes, err := meter.Int64Counter(MetricVotes,
		metric.WithDescription("Verdicts by judge and tag"),
		metric.WithUnit("{vote}"))
	if err != nil {
		return nil, metricsError(MetricVotes, err)
	}

	latency, err := meter.Float64Histogram(MetricJudgeLatency,
		metric.WithDescription("Wall time of a judge vote including retries"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, metricsError(MetricJudgeLatency, err)
	}

	retries, err := meter.Int64Counter(MetricJudgeRetries,
		metric.WithDescription("Provider calls beyond the first per vote"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, metricsError(MetricJudgeRetries, err)
	}

	return &CouncilMetrics{runs: runs, votes: votes, latency: latency, retries: retries}, nil
}

// NoopCouncilMetrics returns instruments that record nothing.
func NoopCouncilMetrics() *CouncilMetrics {
	m, _ := NewCouncilMetrics(noop.NewMeterProvider().Meter(TracerName))
	return m
}

// RecordVote records one verdict. attempts of zero means the judge was never invoked, so
// no latency or retries are recorded.
func (m *CouncilMetrics) RecordVote(ctx context.Context, judgeID, tag string, attempts int, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("judge", judgeID),
		attribute.String("tag", tag),
	)
	m.votes.Add(ctx, 1, attrs)

	if attempts == 0 {
		return
	}
	m.latency.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("judge", judgeID)))
	if attempts > 1 {
		m.retries.Add(ctx, int64(attempts-1), metric.WithAttributes(attribute.String("judge", judgeID)))
	}
}

// RecordRun records a resolved run.
func (m *CouncilMetrics) RecordRun(ctx context.Context, outcome string, superMajority, shortCircuited bool) {
	m.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Bool("super_majority", superMajority),
		attribute.Bool("short_circuited", shortCircuited),
	))
}

func metricsError(name string, err error) error {
	return types.WrapError(types.OBSERVABILITY_EXPORTER_FAILED, "failed to create instrument "+name, err)
}
