// Package cache provides the key/value store behind the apiops pipeline.
//
// It defines the Store interface with an in-memory LRU implementation and a
// Redis-backed implementation, a strategy table mapping resource categories
// to key prefixes and freshness windows, and a deterministic keyer for
// parameterized lookups.
package cache
