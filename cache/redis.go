package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/apiops/observe"
)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	// Namespace is prepended to every key so several processes can share
	// one Redis database. Default: "apiops"
	Namespace string

	// ScanCount is the COUNT hint for SCAN during pattern deletes.
	// Default: 100
	ScanCount int64

	// Logger receives backend failure logs. Default: no-op.
	Logger observe.Logger
}

// RedisStore is a Store backed by a Redis server. Backend failures on reads
// behave as misses; the pipeline never depends on Redis being up.
type RedisStore struct {
	client    redis.UniversalClient
	namespace string
	scanCount int64
	logger    observe.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisStore creates a Redis-backed store on an existing client.
// The caller owns the client's lifecycle.
func NewRedisStore(client redis.UniversalClient, cfg RedisConfig) *RedisStore {
	if cfg.Namespace == "" {
		cfg.Namespace = "apiops"
	}
	if cfg.ScanCount <= 0 {
		cfg.ScanCount = 100
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	return &RedisStore{
		client:    client,
		namespace: cfg.Namespace,
		scanCount: cfg.ScanCount,
		logger:    cfg.Logger.WithComponent("cache.redis"),
	}
}

func (s *RedisStore) namespaced(key string) string {
	return s.namespace + ":" + key
}

// Get retrieves a value. Misses, expired keys, and backend failures all
// return (nil, false).
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := s.client.Get(ctx, s.namespaced(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn(ctx, "redis get failed, treating as miss",
				observe.F("key", key), observe.F("error", err.Error()))
		}
		s.misses.Add(1)
		return nil, false
	}

	s.hits.Add(1)
	return val, true
}

// Set stores a value with the given TTL. TTL<=0 means no caching.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}

	if err := s.client.Set(ctx, s.namespaced(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %q: %v", ErrBackend, key, err)
	}
	return nil
}

// Delete removes a value. Idempotent - no error on miss.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.namespaced(key)).Err(); err != nil {
		return fmt.Errorf("%w: delete %q: %v", ErrBackend, key, err)
	}
	return nil
}

// DeleteMatching removes all keys matching the glob pattern using SCAN so
// the server is never blocked by a KEYS call. Returns the count removed.
func (s *RedisStore) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	iter := s.client.Scan(ctx, 0, s.namespaced(pattern), s.scanCount).Iterator()

	removed := 0
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, fmt.Errorf("%w: delete matching %q: %v", ErrBackend, pattern, err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("%w: scan %q: %v", ErrBackend, pattern, err)
	}
	return removed, nil
}

// Stats returns hit/miss counters tracked by this process and the current
// keyspace size. Redis does not evict per-namespace, so Evictions is zero.
func (s *RedisStore) Stats(ctx context.Context) Stats {
	var size int64
	iter := s.client.Scan(ctx, 0, s.namespaced("*"), s.scanCount).Iterator()
	for iter.Next(ctx) {
		size++
	}

	return Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Size:   size,
	}
}

// Ping verifies connectivity to the Redis server.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrBackend, err)
	}
	return nil
}

// Ensure RedisStore implements Store and Pinger
var (
	_ Store  = (*RedisStore)(nil)
	_ Pinger = (*RedisStore)(nil)
)
