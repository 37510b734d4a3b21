package ratelimit

import "errors"

// Sentinel errors for rate limiting.
var (
	// ErrInvalidCost is returned when the requested cost is not positive.
	ErrInvalidCost = errors.New("ratelimit: cost must be positive")

	// ErrCostExceedsCapacity is returned when the requested cost can never
	// be satisfied because it exceeds some tier's capacity.
	ErrCostExceedsCapacity = errors.New("ratelimit: cost exceeds tier capacity")
)
