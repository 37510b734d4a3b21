// Package breaker implements the circuit breaker pattern for remote API
// resources, with a registry that owns one breaker per resource name.
//
// A breaker moves CLOSED -> OPEN after a run of failures, rejects calls
// while OPEN, admits trial probes HALF_OPEN after a recovery timeout, and
// closes again after enough probe successes. Callers look breakers up by
// name per call instead of holding a breaker across long periods.
package breaker
