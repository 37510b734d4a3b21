package cache

import (
	"fmt"
	"time"
)

// Category classifies a remote resource by how quickly it goes stale.
type Category int

const (
	// Static resources change rarely (reference data, schemas).
	Static Category = iota
	// SemiStatic resources change occasionally (collections, settings).
	SemiStatic
	// Dynamic resources change constantly (live status, counters).
	Dynamic
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case Static:
		return "static"
	case SemiStatic:
		return "semi-static"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Strategy pairs a key prefix with a freshness window for one category.
// Strategies are immutable after construction.
type Strategy struct {
	// Category is the resource category this strategy serves. NewTable
	// fills it in from the table key.
	Category Category

	// KeyPrefix namespaces all keys of this category.
	KeyPrefix string

	// TTL is how long entries of this category stay fresh.
	TTL time.Duration
}

// Table maps resource categories to their caching strategy.
// A Table is built once at construction time and never mutated.
type Table struct {
	strategies map[Category]Strategy
}

// DefaultTable returns the reference strategy table:
// static 24h, semi-static 5m, dynamic 15s.
func DefaultTable() *Table {
	return NewTable(map[Category]Strategy{
		Static:     {KeyPrefix: "static", TTL: 24 * time.Hour},
		SemiStatic: {KeyPrefix: "semi", TTL: 5 * time.Minute},
		Dynamic:    {KeyPrefix: "dyn", TTL: 15 * time.Second},
	})
}

// NewTable creates a strategy table from the given mapping.
// The mapping is copied; later mutation of the argument has no effect.
func NewTable(strategies map[Category]Strategy) *Table {
	m := make(map[Category]Strategy, len(strategies))
	for cat, s := range strategies {
		s.Category = cat
		m[cat] = s
	}
	return &Table{strategies: m}
}

// Strategy returns the strategy for a category and whether one is defined.
func (t *Table) Strategy(cat Category) (Strategy, bool) {
	s, ok := t.strategies[cat]
	return s, ok
}

// TTL returns the freshness window for a category. Unknown categories get
// zero, which disables caching for them.
func (t *Table) TTL(cat Category) time.Duration {
	return t.strategies[cat].TTL
}

// Key computes the cache key for a single resource:
// <prefix>:<id>
func (t *Table) Key(cat Category, id string) string {
	return fmt.Sprintf("%s:%s", t.strategies[cat].KeyPrefix, id)
}

// ListKey computes the cache key for a listing of resources. Listings are
// keyed separately from the entities they enumerate so a mutation can
// invalidate both.
func (t *Table) ListKey(cat Category, scope string) string {
	if scope == "" {
		return fmt.Sprintf("%s:list", t.strategies[cat].KeyPrefix)
	}
	return fmt.Sprintf("%s:list:%s", t.strategies[cat].KeyPrefix, scope)
}

// InvalidationPatterns returns the glob patterns that must be cleared when
// the identified resource mutates: the entity key itself, any parameterized
// variants of it, and every listing of the category.
func (t *Table) InvalidationPatterns(cat Category, id string) []string {
	prefix := t.strategies[cat].KeyPrefix
	return []string{
		fmt.Sprintf("%s:%s", prefix, id),
		fmt.Sprintf("%s:%s:*", prefix, id),
		fmt.Sprintf("%s:list*", prefix),
	}
}

// CategoryPattern returns the glob pattern covering every key of a category.
func (t *Table) CategoryPattern(cat Category) string {
	return t.strategies[cat].KeyPrefix + ":*"
}
