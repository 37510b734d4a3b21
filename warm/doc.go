// Package warm pre-populates the cache at process startup.
//
// A Warmer fans a fixed set of warm-up fetches through the execution
// pipeline with bounded concurrency, so warming respects the same rate
// limiter and circuit breakers as real traffic. Warming is best-effort:
// individual failures are reported, never fatal.
package warm
