package breaker

import "errors"

// Sentinel errors for circuit breaking.
var (
	// ErrOpen is returned when the circuit is open and the call was
	// rejected without invoking the operation. It is distinct from the
	// operation's own errors so callers can apply fallback logic.
	ErrOpen = errors.New("breaker: circuit is open")

	// ErrCallTimeout is returned when the wrapped operation exceeded the
	// breaker's call timeout. It counts as a failure.
	ErrCallTimeout = errors.New("breaker: call timed out")
)
