package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilStore       = errors.New("cache: store is nil")
	ErrInvalidKey     = errors.New("cache: key is invalid")
	ErrKeyTooLong     = errors.New("cache: key exceeds max length")
	ErrInvalidPattern = errors.New("cache: pattern is invalid")
	ErrBackend        = errors.New("cache: backend failure")
)

// Store is the interface for caching remote API results.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Errors: Get never errors; backend failures behave as a miss. Caching is
//   an optimization, never a correctness dependency.
type Store interface {
	// Get retrieves a cached value. Returns (nil, false) on miss, expiry,
	// or backend failure.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value with the given TTL, overwriting any existing entry
	// and resetting its TTL clock. TTL<=0 means no caching.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a cached value. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// DeleteMatching removes all keys matching a glob-style pattern
	// (* wildcard) and returns the number removed.
	DeleteMatching(ctx context.Context, pattern string) (int, error)

	// Stats returns a snapshot of hit/miss/size/eviction counters.
	Stats(ctx context.Context) Stats
}

// Pinger is implemented by stores backed by an external service.
// Health probes use it to verify connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stats is a point-in-time snapshot of store counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int64
	Evictions int64
}

// HitRate returns hits/(hits+misses), or 0 when nothing was looked up.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
