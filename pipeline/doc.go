// Package pipeline composes the cache store, rate limiter, and circuit
// breaker registry around caller-supplied operations against a remote API.
//
// Execute checks the cache, admits the call through the limiter, runs the
// operation through the resource's breaker, and caches the result. Cache
// failures are swallowed as misses; limiter and breaker signals are always
// surfaced.
//
// Known limitation: concurrent Execute calls on the same cold key may each
// run the operation once (no single-flight deduplication).
package pipeline
