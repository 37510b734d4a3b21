package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/apiops/breaker"
)

// Metrics is the sink for pipeline observability events.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic; recording is best-effort.
type Metrics interface {
	// CacheHit records a cache hit for the key's category.
	CacheHit(ctx context.Context, category string)

	// CacheMiss records a cache miss for the key's category.
	CacheMiss(ctx context.Context, category string)

	// Throttled records that a call had to wait on the rate limiter.
	Throttled(ctx context.Context)

	// BreakerTransition records a circuit state change.
	BreakerTransition(ctx context.Context, name string, from, to breaker.State)

	// Operation records one remote operation with duration and error status.
	Operation(ctx context.Context, name string, duration time.Duration, err error)
}

// metricsImpl records pipeline events through an OpenTelemetry meter.
type metricsImpl struct {
	hits         metric.Int64Counter
	misses       metric.Int64Counter
	throttled    metric.Int64Counter
	transitions  metric.Int64Counter
	opCount      metric.Int64Counter
	opErrors     metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a Metrics sink on the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	hits, err := meter.Int64Counter(
		"apiops.cache.hits",
		metric.WithDescription("Cache hits"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"apiops.cache.misses",
		metric.WithDescription("Cache misses"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	throttled, err := meter.Int64Counter(
		"apiops.limiter.throttled",
		metric.WithDescription("Calls that waited on the rate limiter"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter(
		"apiops.breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	opCount, err := meter.Int64Counter(
		"apiops.op.total",
		metric.WithDescription("Total remote operations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	opErrors, err := meter.Int64Counter(
		"apiops.op.errors",
		metric.WithDescription("Failed remote operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"apiops.op.duration_ms",
		metric.WithDescription("Remote operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		hits:         hits,
		misses:       misses,
		throttled:    throttled,
		transitions:  transitions,
		opCount:      opCount,
		opErrors:     opErrors,
		durationHist: durationHist,
	}, nil
}

func (m *metricsImpl) CacheHit(ctx context.Context, category string) {
	m.hits.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
}

func (m *metricsImpl) CacheMiss(ctx context.Context, category string) {
	m.misses.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
}

func (m *metricsImpl) Throttled(ctx context.Context) {
	m.throttled.Add(ctx, 1)
}

func (m *metricsImpl) BreakerTransition(ctx context.Context, name string, from, to breaker.State) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker", name),
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	))
}

func (m *metricsImpl) Operation(ctx context.Context, name string, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("breaker", name))

	m.opCount.Add(ctx, 1, opt)
	if err != nil {
		m.opErrors.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// nopMetrics is a Metrics sink that does nothing.
type nopMetrics struct{}

// NopMetrics returns a Metrics sink that discards everything.
func NopMetrics() Metrics {
	return nopMetrics{}
}

func (nopMetrics) CacheHit(context.Context, string)                                  {}
func (nopMetrics) CacheMiss(context.Context, string)                                 {}
func (nopMetrics) Throttled(context.Context)                                         {}
func (nopMetrics) BreakerTransition(context.Context, string, breaker.State, breaker.State) {}
func (nopMetrics) Operation(context.Context, string, time.Duration, error)           {}

// Ensure both implementations satisfy Metrics
var (
	_ Metrics = (*metricsImpl)(nil)
	_ Metrics = nopMetrics{}
)
