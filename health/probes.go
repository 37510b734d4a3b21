package health

import (
	"context"
	"fmt"
	"runtime"

	"github.com/jonwraymond/apiops/breaker"
	"github.com/jonwraymond/apiops/cache"
	"github.com/jonwraymond/apiops/ratelimit"
)

// StoreProbe checks the cache store. Stores backed by an external service
// (cache.Pinger) are pinged; a failed ping is unhealthy. Hit/miss/size
// counters are attached as details.
func StoreProbe(store cache.Store) ProbeFunc {
	return func(ctx context.Context) Result {
		if p, ok := store.(cache.Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return Unhealthy("cache backend unreachable", err)
			}
		}

		stats := store.Stats(ctx)
		return Healthy("cache store operational").WithDetails(map[string]any{
			"hits":      stats.Hits,
			"misses":    stats.Misses,
			"size":      stats.Size,
			"evictions": stats.Evictions,
			"hit_rate":  stats.HitRate(),
		})
	}
}

// LimiterProbe checks the rate limiter. An exhausted tier degrades the
// result: the process works, but outbound calls are queueing.
func LimiterProbe(l *ratelimit.Limiter) ProbeFunc {
	return func(ctx context.Context) Result {
		tiers := l.Tokens()

		details := make(map[string]any, len(tiers)+1)
		details["throttled"] = l.Throttled()

		exhausted := ""
		for _, t := range tiers {
			details[t.Name] = t.Tokens
			if t.Tokens < 1 {
				exhausted = t.Name
			}
		}

		if exhausted != "" {
			return Degraded(fmt.Sprintf("rate limit tier %q exhausted", exhausted)).WithDetails(details)
		}
		return Healthy("rate limiter has capacity").WithDetails(details)
	}
}

// BreakerProbe checks the breaker registry. Open circuits degrade the
// result: the remote API is failing but cached traffic still serves.
func BreakerProbe(reg *breaker.Registry) ProbeFunc {
	return func(ctx context.Context) Result {
		states := reg.States()

		open := 0
		details := make(map[string]any, len(states))
		for name, state := range states {
			details[name] = state.String()
			if state == breaker.StateOpen {
				open++
			}
		}

		if open > 0 {
			return Degraded(fmt.Sprintf("%d circuit(s) open", open)).WithDetails(details)
		}
		return Healthy("all circuits closed").WithDetails(details)
	}
}

// MemoryProbeConfig configures the process memory probe.
type MemoryProbeConfig struct {
	// WarningThreshold is the allocation ratio that degrades the result.
	// Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the allocation ratio that makes it unhealthy.
	// Default: 0.95
	CriticalThreshold float64

	// MaxAlloc is the expected allocation ceiling in bytes.
	// Default: the runtime's current Sys value.
	MaxAlloc uint64
}

// MemoryProbe checks process heap usage against the configured ceiling.
// Suitable as a liveness-adjacent check: it never touches the remote API.
func MemoryProbe(cfg MemoryProbeConfig) ProbeFunc {
	if cfg.WarningThreshold <= 0 || cfg.WarningThreshold >= 1 {
		cfg.WarningThreshold = 0.8
	}
	if cfg.CriticalThreshold <= cfg.WarningThreshold || cfg.CriticalThreshold >= 1 {
		cfg.CriticalThreshold = 0.95
	}

	return func(ctx context.Context) Result {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)

		maxAlloc := cfg.MaxAlloc
		if maxAlloc == 0 {
			maxAlloc = stats.Sys
		}
		if maxAlloc == 0 {
			return Healthy("memory stats unavailable")
		}

		ratio := float64(stats.Alloc) / float64(maxAlloc)
		details := map[string]any{
			"alloc_bytes":   stats.Alloc,
			"max_alloc":     maxAlloc,
			"usage_percent": ratio * 100,
			"num_gc":        stats.NumGC,
			"goroutines":    runtime.NumGoroutine(),
		}

		switch {
		case ratio >= cfg.CriticalThreshold:
			return Unhealthy(
				fmt.Sprintf("memory usage critical: %.1f%%", ratio*100),
				ErrCheckFailed,
			).WithDetails(details)
		case ratio >= cfg.WarningThreshold:
			return Degraded(
				fmt.Sprintf("memory usage high: %.1f%%", ratio*100),
			).WithDetails(details)
		default:
			return Healthy(
				fmt.Sprintf("memory usage normal: %.1f%%", ratio*100),
			).WithDetails(details)
		}
	}
}
