package breaker

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is rejecting all calls.
	StateOpen
	// StateHalfOpen means the circuit is testing if the resource recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config configures a circuit breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures that open
	// the circuit.
	// Default: 5
	FailureThreshold int

	// SuccessThreshold is the number of half-open probe successes needed
	// to close the circuit. It also bounds how many probes may be in
	// flight at once while half-open.
	// Default: 1
	SuccessThreshold int

	// RecoveryTimeout is how long the circuit stays open before admitting
	// trial probes.
	// Default: 30 seconds
	RecoveryTimeout time.Duration

	// CallTimeout bounds each wrapped call. A timed-out call counts as a
	// failure. Zero or negative disables the bound.
	// Default: 10 seconds
	CallTimeout time.Duration

	// OnStateChange is called on every state transition, outside the
	// breaker lock. The breaker works correctly with a nil sink.
	OnStateChange func(name string, from, to State)

	// IsFailure decides whether an error counts against the breaker.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 1
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = 30 * time.Second
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = 10 * time.Second
	}
	if c.IsFailure == nil {
		c.IsFailure = func(err error) bool { return err != nil }
	}
	return c
}

// Breaker is a per-resource circuit breaker.
type Breaker struct {
	name   string
	config Config

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
	probes      int // half-open calls currently in flight
}

// New creates a circuit breaker for the named resource.
func New(name string, config Config) *Breaker {
	return &Breaker{
		name:   name,
		config: config.withDefaults(),
		state:  StateClosed,
	}
}

// Name returns the resource name this breaker guards.
func (b *Breaker) Name() string {
	return b.name
}

// Call runs the operation through the breaker.
//
// When the circuit is open and the recovery timeout has not elapsed, Call
// returns ErrOpen without invoking op. Otherwise op runs under the
// configured call timeout; its outcome is counted against the breaker
// unless the caller's context ended first, in which case the call counts
// as neither success nor failure.
func (b *Breaker) Call(ctx context.Context, op func(context.Context) error) error {
	if err := b.beforeCall(); err != nil {
		return err
	}

	err := b.invoke(ctx, op)

	// A cancelled caller tells us nothing about the remote resource.
	if ctx.Err() != nil {
		b.settleNeutral()
		return err
	}

	b.afterCall(err)
	return err
}

// invoke runs op, bounded by the call timeout when one is configured.
func (b *Breaker) invoke(ctx context.Context, op func(context.Context) error) error {
	if b.config.CallTimeout <= 0 {
		return op(ctx)
	}

	callCtx, cancel := context.WithTimeout(ctx, b.config.CallTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(callCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrCallTimeout
	}
}

func (b *Breaker) beforeCall() error {
	b.mu.Lock()

	state, promoted := b.currentStateLocked()

	var err error
	switch state {
	case StateOpen:
		err = ErrOpen
	case StateHalfOpen:
		// Admit only as many probes as could still close the circuit.
		if b.successes+b.probes >= b.config.SuccessThreshold {
			err = ErrOpen
		} else {
			b.probes++
		}
	}

	b.mu.Unlock()

	if promoted {
		b.notify(StateOpen, StateHalfOpen)
	}
	return err
}

func (b *Breaker) afterCall(err error) {
	b.mu.Lock()

	isFailure := b.config.IsFailure(err)
	oldState := b.state

	switch b.state {
	case StateClosed:
		if isFailure {
			b.failures++
			b.lastFailure = time.Now()
			if b.failures >= b.config.FailureThreshold {
				b.state = StateOpen
			}
		} else {
			b.failures = 0
		}

	case StateHalfOpen:
		b.probes--
		if isFailure {
			// Failed probe: reopen and restart the recovery clock.
			b.lastFailure = time.Now()
			b.state = StateOpen
			b.successes = 0
			b.probes = 0
		} else {
			b.successes++
			if b.successes >= b.config.SuccessThreshold {
				b.state = StateClosed
				b.failures = 0
				b.successes = 0
			}
		}
	}

	newState := b.state
	b.mu.Unlock()

	b.notify(oldState, newState)
}

// settleNeutral releases a half-open probe slot without counting the call.
func (b *Breaker) settleNeutral() {
	b.mu.Lock()
	if b.state == StateHalfOpen && b.probes > 0 {
		b.probes--
	}
	b.mu.Unlock()
}

// currentStateLocked promotes OPEN to HALF_OPEN once the recovery timeout
// has elapsed since the last failure. It reports whether a promotion
// happened; the caller must fire the state-change notification after
// releasing the lock.
func (b *Breaker) currentStateLocked() (State, bool) {
	if b.state == StateOpen && time.Since(b.lastFailure) >= b.config.RecoveryTimeout {
		b.state = StateHalfOpen
		b.successes = 0
		b.probes = 0
		return b.state, true
	}
	return b.state, false
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.config.OnStateChange != nil {
		b.config.OnStateChange(b.name, from, to)
	}
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	state, promoted := b.currentStateLocked()
	b.mu.Unlock()

	if promoted {
		b.notify(StateOpen, StateHalfOpen)
	}
	return state
}

// Reset forces the breaker back to closed with cleared counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	oldState := b.state
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
	b.probes = 0
	b.mu.Unlock()

	b.notify(oldState, StateClosed)
}

// Metrics contains circuit breaker statistics.
type Metrics struct {
	State       State
	Failures    int
	Successes   int
	LastFailure time.Time
}

// Metrics returns current circuit breaker statistics.
func (b *Breaker) Metrics() Metrics {
	b.mu.Lock()
	state, promoted := b.currentStateLocked()
	m := Metrics{
		State:       state,
		Failures:    b.failures,
		Successes:   b.successes,
		LastFailure: b.lastFailure,
	}
	b.mu.Unlock()

	if promoted {
		b.notify(StateOpen, StateHalfOpen)
	}
	return m
}
