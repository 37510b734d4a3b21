package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Tier describes one token bucket in the limiter.
type Tier struct {
	// Name identifies the tier in snapshots and logs.
	Name string

	// Capacity is the maximum number of tokens the bucket holds.
	Capacity int

	// RefillPerSec is the continuous refill rate in tokens per second.
	RefillPerSec float64
}

// PerSecond builds a tier that admits up to n calls per second.
func PerSecond(n int) Tier {
	return Tier{Name: "per-second", Capacity: n, RefillPerSec: float64(n)}
}

// PerMinute builds a tier that admits up to n calls per minute.
func PerMinute(n int) Tier {
	return Tier{Name: "per-minute", Capacity: n, RefillPerSec: float64(n) / 60}
}

// PerHour builds a tier that admits up to n calls per hour.
func PerHour(n int) Tier {
	return Tier{Name: "per-hour", Capacity: n, RefillPerSec: float64(n) / 3600}
}

// DefaultTiers returns the reference tiers for a conservative external API:
// 10/second, 150/minute, 5000/hour.
func DefaultTiers() []Tier {
	return []Tier{PerSecond(10), PerMinute(150), PerHour(5000)}
}

// bucket is the mutable state of one tier. Guarded by the Limiter mutex.
type bucket struct {
	tier       Tier
	tokens     float64
	lastRefill time.Time
}

// refill advances the bucket clock, adding elapsed*rate tokens up to capacity.
func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.lastRefill = now

	b.tokens += elapsed * b.tier.RefillPerSec
	if b.tokens > float64(b.tier.Capacity) {
		b.tokens = float64(b.tier.Capacity)
	}
}

// waitFor returns how long until the bucket will hold cost tokens.
func (b *bucket) waitFor(cost int) time.Duration {
	deficit := float64(cost) - b.tokens
	if deficit <= 0 {
		return 0
	}
	return time.Duration(deficit / b.tier.RefillPerSec * float64(time.Second))
}

// Limiter gates outbound calls through an ordered set of token buckets.
// All buckets share one mutex so multi-tier deduction is atomic.
type Limiter struct {
	mu      sync.Mutex
	buckets []*bucket

	throttled int64
}

// NewLimiter creates a limiter over the given tiers. With no tiers it uses
// DefaultTiers. Tiers with non-positive capacity or rate are dropped.
func NewLimiter(tiers ...Tier) *Limiter {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}

	now := time.Now()
	buckets := make([]*bucket, 0, len(tiers))
	for _, t := range tiers {
		if t.Capacity <= 0 || t.RefillPerSec <= 0 {
			continue
		}
		buckets = append(buckets, &bucket{
			tier:       t,
			tokens:     float64(t.Capacity),
			lastRefill: now,
		})
	}

	return &Limiter{buckets: buckets}
}

// TryAcquire attempts to take cost tokens from every tier without blocking.
// The deduction is all-or-nothing: if any tier lacks tokens, no tier is
// charged and TryAcquire returns false.
func (l *Limiter) TryAcquire(cost int) bool {
	if cost <= 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.tryAcquireLocked(cost, time.Now())
}

func (l *Limiter) tryAcquireLocked(cost int, now time.Time) bool {
	for _, b := range l.buckets {
		b.refill(now)
	}

	for _, b := range l.buckets {
		if b.tokens < float64(cost) {
			return false
		}
	}

	for _, b := range l.buckets {
		b.tokens -= float64(cost)
	}
	return true
}

// Acquire blocks until every tier admits cost tokens or the context ends.
// It has no failure mode of its own; callers wanting a bound attach a
// deadline to ctx.
func (l *Limiter) Acquire(ctx context.Context, cost int) error {
	if cost <= 0 {
		return ErrInvalidCost
	}
	for _, b := range l.buckets {
		if cost > b.tier.Capacity {
			return ErrCostExceedsCapacity
		}
	}

	if l.TryAcquire(cost) {
		return nil
	}

	l.mu.Lock()
	l.throttled++
	l.mu.Unlock()

	for {
		wait := l.waitTime(cost)
		// Concurrent acquirers race for refilled tokens; re-check on a
		// short floor rather than trusting the computed wait exactly.
		if wait < time.Millisecond {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if l.TryAcquire(cost) {
			return nil
		}
	}
}

// waitTime returns the longest wait across tiers until all could admit cost.
func (l *Limiter) waitTime(cost int) time.Duration {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	var max time.Duration
	for _, b := range l.buckets {
		b.refill(now)
		if w := b.waitFor(cost); w > max {
			max = w
		}
	}
	return max
}

// UpdateFromHint clamps tier tokens to a server-supplied remaining quota.
// Conservative: tokens only ever go down, and only on tiers whose window
// is at most resetAfter (a 60s reset hint should not drain the hourly tier).
// A non-positive resetAfter applies the clamp to every tier.
func (l *Limiter) UpdateFromHint(remaining int, resetAfter time.Duration) {
	if remaining < 0 {
		remaining = 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, b := range l.buckets {
		if resetAfter > 0 {
			window := time.Duration(float64(b.tier.Capacity) / b.tier.RefillPerSec * float64(time.Second))
			if window > resetAfter {
				continue
			}
		}
		if b.tokens > float64(remaining) {
			b.tokens = float64(remaining)
		}
	}
}

// TierTokens is a snapshot of one tier's state.
type TierTokens struct {
	Name     string
	Capacity int
	Tokens   float64
}

// Tokens returns a refreshed snapshot of every tier.
func (l *Limiter) Tokens() []TierTokens {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	snap := make([]TierTokens, len(l.buckets))
	for i, b := range l.buckets {
		b.refill(now)
		snap[i] = TierTokens{
			Name:     b.tier.Name,
			Capacity: b.tier.Capacity,
			Tokens:   b.tokens,
		}
	}
	return snap
}

// Throttled returns how many Acquire calls had to wait.
func (l *Limiter) Throttled() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.throttled
}

// Reset refills every tier to capacity.
func (l *Limiter) Reset() {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, b := range l.buckets {
		b.tokens = float64(b.tier.Capacity)
		b.lastRefill = now
	}
}
