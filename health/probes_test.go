package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/apiops/breaker"
	"github.com/jonwraymond/apiops/cache"
	"github.com/jonwraymond/apiops/ratelimit"
)

// pingableStore wraps a store with a controllable ping outcome.
type pingableStore struct {
	cache.Store
	pingErr error
}

func (p *pingableStore) Ping(ctx context.Context) error { return p.pingErr }

func TestStoreProbe(t *testing.T) {
	store := cache.NewMemoryStore(cache.MemoryConfig{})
	ctx := context.Background()
	_ = store.Set(ctx, "k", []byte("v"), time.Minute)
	store.Get(ctx, "k")
	store.Get(ctx, "missing")

	result := StoreProbe(store)(ctx)
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", result.Status)
	}
	if result.Details["hits"].(int64) != 1 || result.Details["misses"].(int64) != 1 {
		t.Errorf("Details = %v, want hits 1, misses 1", result.Details)
	}
	if result.Details["size"].(int64) != 1 {
		t.Errorf("size = %v, want 1", result.Details["size"])
	}
}

func TestStoreProbe_PingFailure(t *testing.T) {
	pingErr := errors.New("redis: connection pool timeout")
	store := &pingableStore{
		Store:   cache.NewMemoryStore(cache.MemoryConfig{}),
		pingErr: pingErr,
	}

	result := StoreProbe(store)(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy on ping failure", result.Status)
	}
	if !errors.Is(result.Error, pingErr) {
		t.Errorf("Error = %v, want %v", result.Error, pingErr)
	}
}

func TestLimiterProbe(t *testing.T) {
	l := ratelimit.NewLimiter(ratelimit.PerSecond(2))
	ctx := context.Background()

	result := LimiterProbe(l)(ctx)
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy with full buckets", result.Status)
	}

	l.TryAcquire(2)
	result = LimiterProbe(l)(ctx)
	if result.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded with an exhausted tier", result.Status)
	}
	if _, ok := result.Details["per-second"]; !ok {
		t.Errorf("Details = %v, want per-second tier snapshot", result.Details)
	}
}

func TestBreakerProbe(t *testing.T) {
	reg := breaker.NewRegistry(breaker.Config{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Hour,
	})
	ctx := context.Background()

	result := BreakerProbe(reg)(ctx)
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy with no breakers", result.Status)
	}

	_ = reg.GetOrCreate("flaky").Call(ctx, func(ctx context.Context) error {
		return errors.New("boom")
	})

	result = BreakerProbe(reg)(ctx)
	if result.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded with an open circuit", result.Status)
	}
	if result.Details["flaky"] != "open" {
		t.Errorf("Details = %v, want flaky marked open", result.Details)
	}
}

func TestMemoryProbe(t *testing.T) {
	result := MemoryProbe(MemoryProbeConfig{})(context.Background())
	if result.Status == StatusUnhealthy {
		t.Errorf("Status = %v, a test process should not be critical on memory", result.Status)
	}
	if _, ok := result.Details["alloc_bytes"]; !ok {
		t.Errorf("Details = %v, want alloc_bytes", result.Details)
	}
}
