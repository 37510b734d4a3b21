package invalidate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonwraymond/apiops/cache"
	"github.com/jonwraymond/apiops/observe"
)

// DefaultHistorySize is how many invalidation events are retained.
const DefaultHistorySize = 100

// Event records one invalidation for observability. Events are transient;
// the history lives in memory only.
type Event struct {
	Category   cache.Category
	ResourceID string
	Reason     string
	Removed    int
	Timestamp  time.Time
}

// Config configures an Invalidator.
type Config struct {
	// Store is the cache store to delete from. Required.
	Store cache.Store

	// Strategies supplies the key patterns per category.
	// Default: cache.DefaultTable().
	Strategies *cache.Table

	// HistorySize bounds the event history. Default: DefaultHistorySize.
	HistorySize int

	// Logger receives invalidation logs. Default: no-op.
	Logger observe.Logger
}

// Invalidator issues pattern deletes against the cache store in response to
// mutations. Invalidation is idempotent: clearing keys that are already
// absent is a no-op, never an error.
type Invalidator struct {
	store      cache.Store
	strategies *cache.Table
	logger     observe.Logger

	mu      sync.Mutex
	history []Event // ring buffer
	head    int     // next write position
	filled  bool
}

// New creates an Invalidator.
func New(cfg Config) (*Invalidator, error) {
	if cfg.Store == nil {
		return nil, cache.ErrNilStore
	}
	if cfg.Strategies == nil {
		cfg.Strategies = cache.DefaultTable()
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	return &Invalidator{
		store:      cfg.Store,
		strategies: cfg.Strategies,
		logger:     cfg.Logger.WithComponent("invalidate"),
		history:    make([]Event, cfg.HistorySize),
	}, nil
}

// Invalidate clears every cache key poisoned by a mutation of the
// identified resource: the entity key, its parameterized variants, and all
// listings of the category. Returns the number of keys removed.
func (inv *Invalidator) Invalidate(ctx context.Context, cat cache.Category, id, reason string) (int, error) {
	return inv.deletePatterns(ctx, cat, id, reason, inv.strategies.InvalidationPatterns(cat, id))
}

// InvalidateCategory clears every cache key of a category.
func (inv *Invalidator) InvalidateCategory(ctx context.Context, cat cache.Category, reason string) (int, error) {
	return inv.deletePatterns(ctx, cat, "*", reason, []string{inv.strategies.CategoryPattern(cat)})
}

// InvalidateAll clears the entire cache.
func (inv *Invalidator) InvalidateAll(ctx context.Context, reason string) (int, error) {
	removed, err := inv.store.DeleteMatching(ctx, "*")
	inv.record(ctx, Event{
		Category:   -1,
		ResourceID: "*",
		Reason:     reason,
		Removed:    removed,
		Timestamp:  time.Now(),
	})
	return removed, err
}

func (inv *Invalidator) deletePatterns(ctx context.Context, cat cache.Category, id, reason string, patterns []string) (int, error) {
	total := 0
	var errs []error
	for _, pattern := range patterns {
		removed, err := inv.store.DeleteMatching(ctx, pattern)
		total += removed
		if err != nil {
			errs = append(errs, err)
		}
	}

	inv.record(ctx, Event{
		Category:   cat,
		ResourceID: id,
		Reason:     reason,
		Removed:    total,
		Timestamp:  time.Now(),
	})

	return total, errors.Join(errs...)
}

func (inv *Invalidator) record(ctx context.Context, ev Event) {
	inv.mu.Lock()
	inv.history[inv.head] = ev
	inv.head++
	if inv.head == len(inv.history) {
		inv.head = 0
		inv.filled = true
	}
	inv.mu.Unlock()

	inv.logger.Debug(ctx, "cache invalidated",
		observe.F("category", ev.Category.String()),
		observe.F("resource_id", ev.ResourceID),
		observe.F("reason", ev.Reason),
		observe.F("removed", ev.Removed),
	)
}

// History returns the retained events, oldest first.
func (inv *Invalidator) History() []Event {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if !inv.filled {
		out := make([]Event, inv.head)
		copy(out, inv.history[:inv.head])
		return out
	}

	out := make([]Event, 0, len(inv.history))
	out = append(out, inv.history[inv.head:]...)
	out = append(out, inv.history[:inv.head]...)
	return out
}

// LastEvents returns up to n of the most recent events, oldest first.
// Non-positive n returns nil.
func (inv *Invalidator) LastEvents(n int) []Event {
	if n <= 0 {
		return nil
	}
	all := inv.History()
	if n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}
