package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/apiops/breaker"
	"github.com/jonwraymond/apiops/cache"
	"github.com/jonwraymond/apiops/observe"
	"github.com/jonwraymond/apiops/ratelimit"
)

// Operation is a remote API call with its arguments pre-bound by the caller.
type Operation func(ctx context.Context) ([]byte, error)

// ErrNilOperation is returned when Execute is given a nil operation.
var ErrNilOperation = errors.New("pipeline: operation is nil")

// ErrUnknownCategory is returned when no strategy is registered for the
// requested resource category.
var ErrUnknownCategory = errors.New("pipeline: no strategy for category")

// Config configures a Pipeline. Zero-value fields get working defaults so
// tests can construct pipelines piecemeal.
type Config struct {
	// Store holds cached results. Default: in-memory store.
	Store cache.Store

	// Strategies maps resource categories to key prefixes and TTLs.
	// Default: cache.DefaultTable().
	Strategies *cache.Table

	// Limiter gates outbound calls. Default: ratelimit.DefaultTiers.
	Limiter *ratelimit.Limiter

	// Breakers owns the per-resource circuit breakers. When nil, a
	// registry is created with its state changes wired to Metrics.
	Breakers *breaker.Registry

	// BreakerDefaults applies when the pipeline creates its own registry.
	BreakerDefaults breaker.Config

	// Metrics receives observability events. Default: no-op.
	Metrics Metrics

	// Logger receives structured logs. Default: no-op.
	Logger observe.Logger
}

// Pipeline composes cache, rate limiter, and circuit breakers around
// caller-supplied operations. All collaborators are injected; a Pipeline
// holds no hidden global state.
type Pipeline struct {
	store      cache.Store
	strategies *cache.Table
	limiter    *ratelimit.Limiter
	breakers   *breaker.Registry
	metrics    Metrics
	logger     observe.Logger
}

// New creates a pipeline from the given config.
func New(cfg Config) *Pipeline {
	if cfg.Store == nil {
		cfg.Store = cache.NewMemoryStore(cache.MemoryConfig{})
	}
	if cfg.Strategies == nil {
		cfg.Strategies = cache.DefaultTable()
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewLimiter()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NopMetrics()
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Breakers == nil {
		metrics := cfg.Metrics
		bcfg := cfg.BreakerDefaults
		userSink := bcfg.OnStateChange
		bcfg.OnStateChange = func(name string, from, to breaker.State) {
			metrics.BreakerTransition(context.Background(), name, from, to)
			if userSink != nil {
				userSink(name, from, to)
			}
		}
		cfg.Breakers = breaker.NewRegistry(bcfg)
	}

	return &Pipeline{
		store:      cfg.Store,
		strategies: cfg.Strategies,
		limiter:    cfg.Limiter,
		breakers:   cfg.Breakers,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.WithComponent("pipeline"),
	}
}

// Default creates a pipeline with the in-memory store, the default strategy
// table, the default limiter tiers, and a fresh breaker registry. It is a
// convenience factory; every instance is still independent.
func Default() *Pipeline {
	return New(Config{})
}

// Store returns the pipeline's cache store.
func (p *Pipeline) Store() cache.Store {
	return p.store
}

// Strategies returns the pipeline's strategy table.
func (p *Pipeline) Strategies() *cache.Table {
	return p.strategies
}

// Limiter returns the pipeline's rate limiter.
func (p *Pipeline) Limiter() *ratelimit.Limiter {
	return p.limiter
}

// Breakers returns the pipeline's breaker registry.
func (p *Pipeline) Breakers() *breaker.Registry {
	return p.breakers
}

// ExecuteResource runs op for the identified resource, deriving the cache
// key and TTL from the resource's category. Categories must be registered in
// the strategy table; an unknown one is a wiring bug, not a cache miss.
func (p *Pipeline) ExecuteResource(ctx context.Context, cat cache.Category, id, breakerName string, op Operation) ([]byte, error) {
	strat, ok := p.strategies.Strategy(cat)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, cat)
	}
	return p.Execute(ctx, p.strategies.Key(cat, id), strat, breakerName, op)
}

// Execute runs op behind the cache, limiter, and breaker:
//
//  1. Cache hit returns the cached value without touching the remote API.
//  2. On a miss the limiter must admit the call; Acquire blocks as needed.
//  3. The named breaker runs op; breaker.ErrOpen propagates immediately.
//  4. A successful result is cached with the strategy's TTL and returned.
//  5. Operation errors propagate unchanged and are never cached.
func (p *Pipeline) Execute(ctx context.Context, key string, strat cache.Strategy, breakerName string, op Operation) ([]byte, error) {
	if op == nil {
		return nil, ErrNilOperation
	}

	category := strat.Category.String()

	if cached, ok := p.store.Get(ctx, key); ok {
		p.metrics.CacheHit(ctx, category)
		return cached, nil
	}
	p.metrics.CacheMiss(ctx, category)

	if !p.limiter.TryAcquire(1) {
		p.metrics.Throttled(ctx)
		if err := p.limiter.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}

	var result []byte
	start := time.Now()
	err := p.breakers.GetOrCreate(breakerName).Call(ctx, func(ctx context.Context) error {
		r, opErr := op(ctx)
		if opErr == nil {
			result = r
		}
		return opErr
	})
	if errors.Is(err, breaker.ErrOpen) {
		// Fail fast: the operation never ran, so there is no duration to
		// record and nothing to cache.
		return nil, err
	}
	p.metrics.Operation(ctx, breakerName, time.Since(start), err)

	if err != nil {
		return nil, err
	}

	// Caching is best-effort: a store failure must never fail the call.
	if setErr := p.store.Set(ctx, key, result, strat.TTL); setErr != nil {
		p.logger.Warn(ctx, "cache set failed",
			observe.F("key", key), observe.F("error", setErr.Error()))
	}

	return result, nil
}
