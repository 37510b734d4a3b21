package cache

import (
	"container/list"
	"context"
	"fmt"
	"path"
	"sync"
	"time"
)

// MemoryConfig configures the in-memory store.
type MemoryConfig struct {
	// MaxEntries is the size bound; the least-recently-used entry is
	// evicted when a Set would exceed it.
	// Default: 4096
	MaxEntries int

	// SweepInterval is how often the background sweeper removes expired
	// entries. Zero disables the sweeper; expired entries are still
	// removed lazily on Get.
	SweepInterval time.Duration
}

// MemoryStore is an in-memory Store with TTL expiry and LRU eviction.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List // front = most recently used

	maxEntries int

	hits      int64
	misses    int64
	evictions int64

	sweepInterval time.Duration
	sweepStop     chan struct{}
	sweepDone     chan struct{}
}

type memoryEntry struct {
	key       string
	value     []byte
	storedAt  time.Time
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 4096
	}

	return &MemoryStore{
		entries:       make(map[string]*list.Element),
		lru:           list.New(),
		maxEntries:    cfg.MaxEntries,
		sweepInterval: cfg.SweepInterval,
	}
}

// Get retrieves a value. Expired entries behave as a miss and are removed.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[key]
	if !ok {
		s.misses++
		return nil, false
	}

	entry := elem.Value.(*memoryEntry)
	if entry.expired(time.Now()) {
		s.removeLocked(elem)
		s.misses++
		return nil, false
	}

	s.lru.MoveToFront(elem)
	s.hits++
	return entry.value, true
}

// Set stores a value, overwriting any existing entry for the key and
// resetting its TTL clock. TTL<=0 means no caching.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}

	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.entries[key]; ok {
		entry := elem.Value.(*memoryEntry)
		entry.value = value
		entry.storedAt = now
		entry.expiresAt = now.Add(ttl)
		s.lru.MoveToFront(elem)
		return nil
	}

	elem := s.lru.PushFront(&memoryEntry{
		key:       key,
		value:     value,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	})
	s.entries[key] = elem

	for s.lru.Len() > s.maxEntries {
		oldest := s.lru.Back()
		if oldest == nil {
			break
		}
		s.removeLocked(oldest)
		s.evictions++
	}

	return nil
}

// Delete removes a value. Idempotent - no error on miss.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.entries[key]; ok {
		s.removeLocked(elem)
	}
	return nil
}

// DeleteMatching removes all keys matching the glob pattern and returns the
// count removed.
func (s *MemoryStore) DeleteMatching(_ context.Context, pattern string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, elem := range s.entries {
		ok, err := path.Match(pattern, key)
		if err != nil {
			return removed, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
		if ok {
			s.removeLocked(elem)
			removed++
		}
	}
	return removed, nil
}

// Stats returns a snapshot of the store counters.
func (s *MemoryStore) Stats(_ context.Context) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Hits:      s.hits,
		Misses:    s.misses,
		Size:      int64(s.lru.Len()),
		Evictions: s.evictions,
	}
}

// Sweep removes all expired entries immediately and returns the count removed.
func (s *MemoryStore) Sweep() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, elem := range s.entries {
		if elem.Value.(*memoryEntry).expired(now) {
			s.removeLocked(elem)
			removed++
		}
	}
	return removed
}

// StartSweeper launches the background sweeper at the configured interval.
// No-op if the interval is zero or a sweeper is already running.
func (s *MemoryStore) StartSweeper() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sweepInterval <= 0 || s.sweepStop != nil {
		return
	}

	s.sweepStop = make(chan struct{})
	s.sweepDone = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-stop:
				return
			}
		}
	}(s.sweepStop, s.sweepDone)
}

// StopSweeper stops the background sweeper and waits for it to exit.
func (s *MemoryStore) StopSweeper() {
	s.mu.Lock()
	stop, done := s.sweepStop, s.sweepDone
	s.sweepStop, s.sweepDone = nil, nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (s *MemoryStore) removeLocked(elem *list.Element) {
	entry := elem.Value.(*memoryEntry)
	s.lru.Remove(elem)
	delete(s.entries, entry.key)
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
