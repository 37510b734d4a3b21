// Package health aggregates named probes into liveness and readiness
// signals.
//
// Probes run concurrently, each under its own timeout. A failing critical
// probe makes the aggregate unhealthy; failing non-critical probes only
// degrade it. HTTP handlers expose the results for liveness/readiness
// probing, plus stock probes for the cache store, rate limiter, breaker
// registry, and process memory.
package health
