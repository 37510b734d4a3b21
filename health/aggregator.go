package health

import (
	"context"
	"sync"
	"time"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// DefaultTimeout applies to checks registered without their own.
	// Default: 5 seconds
	DefaultTimeout time.Duration
}

// check is one registered probe with its policy.
type check struct {
	name     string
	probe    ProbeFunc
	critical bool
	timeout  time.Duration
}

// Aggregator runs independent named probes and combines their results.
// It depends only on probe results, never on component internals.
type Aggregator struct {
	config AggregatorConfig

	mu     sync.RWMutex
	checks map[string]*check
	order  []string // registration order
}

// NewAggregator creates a new health aggregator.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	cfg := AggregatorConfig{DefaultTimeout: 5 * time.Second}
	if len(config) > 0 {
		cfg = config[0]
		if cfg.DefaultTimeout <= 0 {
			cfg.DefaultTimeout = 5 * time.Second
		}
	}

	return &Aggregator{
		config: cfg,
		checks: make(map[string]*check),
	}
}

// RegisterCheck adds a probe. Critical checks gate readiness: one unhealthy
// critical check makes the aggregate unhealthy. A non-positive timeout uses
// the aggregator default. Re-registering a name replaces the probe.
func (a *Aggregator) RegisterCheck(name string, probe ProbeFunc, critical bool, timeout time.Duration) {
	if timeout <= 0 {
		timeout = a.config.DefaultTimeout
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.checks[name]; !exists {
		a.order = append(a.order, name)
	}
	a.checks[name] = &check{
		name:     name,
		probe:    probe,
		critical: critical,
		timeout:  timeout,
	}
}

// Unregister removes a probe.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.checks, name)
	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// CheckNames returns the names of all registered checks in registration order.
func (a *Aggregator) CheckNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, len(a.order))
	copy(names, a.order)
	return names
}

// CheckResult is one probe's outcome within an aggregate run.
type CheckResult struct {
	Name     string
	Status   Status
	Healthy  bool
	Critical bool
	Message  string
	Duration time.Duration
	Details  map[string]any
	Error    error
}

// Summary counts checks by status.
type Summary struct {
	Total     int
	Healthy   int
	Degraded  int
	Unhealthy int
}

// AggregateResult is the combined outcome of one CheckAll run.
type AggregateResult struct {
	Status  Status
	Healthy bool
	Checks  []CheckResult
	Summary Summary
}

// Check runs a single named check.
func (a *Aggregator) Check(ctx context.Context, name string) (CheckResult, error) {
	a.mu.RLock()
	c, ok := a.checks[name]
	a.mu.RUnlock()

	if !ok {
		return CheckResult{}, ErrCheckNotFound
	}
	return a.runCheck(ctx, c), nil
}

// CheckAll runs every registered check concurrently and aggregates:
// unhealthy if any critical check is unhealthy, degraded if any check is
// degraded or any non-critical check is unhealthy, healthy otherwise.
func (a *Aggregator) CheckAll(ctx context.Context) AggregateResult {
	a.mu.RLock()
	checks := make([]*check, 0, len(a.order))
	for _, name := range a.order {
		checks = append(checks, a.checks[name])
	}
	a.mu.RUnlock()

	results := make([]CheckResult, len(checks))

	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func(i int, c *check) {
			defer wg.Done()
			results[i] = a.runCheck(ctx, c)
		}(i, c)
	}
	wg.Wait()

	agg := AggregateResult{Checks: results}
	agg.Summary.Total = len(results)

	criticalDown := false
	anyDown := false
	for _, r := range results {
		switch r.Status {
		case StatusHealthy:
			agg.Summary.Healthy++
		case StatusDegraded:
			agg.Summary.Degraded++
			anyDown = true
		case StatusUnhealthy:
			agg.Summary.Unhealthy++
			anyDown = true
			if r.Critical {
				criticalDown = true
			}
		}
	}

	switch {
	case criticalDown:
		agg.Status = StatusUnhealthy
	case anyDown:
		agg.Status = StatusDegraded
	default:
		agg.Status = StatusHealthy
	}
	agg.Healthy = agg.Status == StatusHealthy

	return agg
}

// runCheck runs one probe under its timeout. A probe that overruns is
// reported unhealthy with ErrCheckTimeout, never left pending.
func (a *Aggregator) runCheck(ctx context.Context, c *check) CheckResult {
	start := time.Now()

	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resultCh := make(chan Result, 1)
	go func() {
		resultCh <- c.probe(probeCtx)
	}()

	var result Result
	select {
	case result = <-resultCh:
	case <-probeCtx.Done():
		result = Unhealthy("check timed out", ErrCheckTimeout)
	}

	return CheckResult{
		Name:     c.name,
		Status:   result.Status,
		Healthy:  result.Status == StatusHealthy,
		Critical: c.critical,
		Message:  result.Message,
		Duration: time.Since(start),
		Details:  result.Details,
		Error:    result.Error,
	}
}

// LivenessCheck reports whether the process itself is responsive. It never
// touches the remote API or any registered probe; a process that can run it
// at all is live.
func (a *Aggregator) LivenessCheck() bool {
	return true
}

// ReadinessCheck reports whether traffic should be accepted: true unless
// the aggregate status is unhealthy.
func (a *Aggregator) ReadinessCheck(ctx context.Context) bool {
	return a.CheckAll(ctx).Status != StatusUnhealthy
}
