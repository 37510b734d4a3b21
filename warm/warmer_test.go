package warm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/apiops/cache"
	"github.com/jonwraymond/apiops/pipeline"
)

func fetchValue(value string, calls *atomic.Int64) pipeline.Operation {
	return func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte(value), nil
	}
}

func TestWarmer_WarmAll(t *testing.T) {
	pipe := pipeline.Default()
	var calls atomic.Int64

	specs := []Spec{
		{Category: cache.Static, ID: "regions", Breaker: "catalog", Op: fetchValue("r", &calls)},
		{Category: cache.Static, ID: "schemas", Breaker: "catalog", Op: fetchValue("s", &calls)},
		{Category: cache.SemiStatic, ID: "settings", Breaker: "settings", Op: fetchValue("c", &calls)},
	}

	w := New(pipe, specs, Config{})
	report := w.WarmAll(context.Background())

	if report.KeysWarmed != 3 {
		t.Errorf("KeysWarmed = %d, want 3", report.KeysWarmed)
	}
	if len(report.Errors) != 0 {
		t.Errorf("Errors = %v, want none", report.Errors)
	}
	if report.Duration <= 0 {
		t.Error("Duration should be positive")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("operation calls = %d, want 3", got)
	}

	// Warmed resources are served from cache without re-fetching.
	ctx := context.Background()
	out, err := pipe.ExecuteResource(ctx, cache.Static, "regions", "catalog", fetchValue("r", &calls))
	if err != nil {
		t.Fatalf("ExecuteResource after warm-up failed: %v", err)
	}
	if string(out) != "r" {
		t.Errorf("cached value = %q, want r", out)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("operation calls after warm hit = %d, want 3", got)
	}
}

func TestWarmer_PartialFailure(t *testing.T) {
	pipe := pipeline.Default()
	var calls atomic.Int64
	fetchErr := errors.New("upstream down")

	specs := []Spec{
		{Category: cache.Static, ID: "regions", Breaker: "catalog", Op: fetchValue("r", &calls)},
		{Category: cache.Static, ID: "schemas", Breaker: "catalog", Op: func(ctx context.Context) ([]byte, error) {
			return nil, fetchErr
		}},
		{Category: cache.SemiStatic, ID: "settings", Breaker: "settings", Op: fetchValue("c", &calls)},
	}

	report := New(pipe, specs, Config{}).WarmAll(context.Background())

	if report.KeysWarmed != 2 {
		t.Errorf("KeysWarmed = %d, want 2", report.KeysWarmed)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one", report.Errors)
	}
	if report.Errors[0].ID != "schemas" {
		t.Errorf("failed ID = %q, want schemas", report.Errors[0].ID)
	}
	if !errors.Is(report.Errors[0].Err, fetchErr) {
		t.Errorf("failed Err = %v, want %v", report.Errors[0].Err, fetchErr)
	}

	// The good keys made it into the cache despite the failure.
	if _, ok := pipe.Store().Get(context.Background(), pipe.Strategies().Key(cache.Static, "regions")); !ok {
		t.Error("regions should be cached despite the sibling failure")
	}
}

func TestWarmer_TimeoutAbandonsRemaining(t *testing.T) {
	pipe := pipeline.Default()

	slow := func(ctx context.Context) ([]byte, error) {
		time.Sleep(200 * time.Millisecond)
		return []byte("late"), nil
	}
	specs := []Spec{
		{Category: cache.Static, ID: "a", Breaker: "slow", Op: slow},
		{Category: cache.Static, ID: "b", Breaker: "slow", Op: slow},
		{Category: cache.Static, ID: "c", Breaker: "slow", Op: slow},
	}

	w := New(pipe, specs, Config{Concurrency: 1, Timeout: 50 * time.Millisecond})
	report := w.WarmAll(context.Background())

	if report.KeysWarmed != 0 {
		t.Errorf("KeysWarmed = %d, want 0", report.KeysWarmed)
	}
	if len(report.Errors) != 3 {
		t.Errorf("Errors = %d, want 3 (started and abandoned)", len(report.Errors))
	}
	for _, ke := range report.Errors {
		if !errors.Is(ke.Err, context.DeadlineExceeded) {
			t.Errorf("err for %q = %v, want context.DeadlineExceeded", ke.ID, ke.Err)
		}
	}
	if report.Duration > time.Second {
		t.Errorf("Duration = %v, run should stop near the timeout", report.Duration)
	}
}

func TestWarmer_Defaults(t *testing.T) {
	w := New(pipeline.Default(), nil, Config{})
	if w.config.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want default 4", w.config.Concurrency)
	}
	if w.config.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want default 30s", w.config.Timeout)
	}

	report := w.WarmAll(context.Background())
	if report.KeysWarmed != 0 || len(report.Errors) != 0 {
		t.Errorf("empty spec run = %+v, want empty report", report)
	}
}
