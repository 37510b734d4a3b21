package warm

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/apiops/cache"
	"github.com/jonwraymond/apiops/observe"
	"github.com/jonwraymond/apiops/pipeline"
)

// Spec names one resource to pre-fetch at startup.
type Spec struct {
	Category cache.Category
	ID       string
	Breaker  string
	Op       pipeline.Operation
}

// KeyError pairs a warm-up resource with the error that kept it cold.
type KeyError struct {
	ID  string
	Err error
}

// Report summarizes one warm-up run.
type Report struct {
	// KeysWarmed is how many resources were fetched and cached.
	KeysWarmed int

	// Duration is the wall time of the run.
	Duration time.Duration

	// Errors holds the per-resource failures. Partial failure is normal;
	// the run itself never fails.
	Errors []KeyError
}

// Config configures a Warmer.
type Config struct {
	// Concurrency bounds how many warm-up fetches run at once.
	// Default: 4
	Concurrency int

	// Timeout bounds the whole run; resources not fetched in time are
	// abandoned and reported as errors. Zero means no bound.
	// Default: 30 seconds
	Timeout time.Duration

	// Logger receives warm-up logs. Default: no-op.
	Logger observe.Logger
}

// Warmer pre-populates the cache through the pipeline.
type Warmer struct {
	pipe   *pipeline.Pipeline
	specs  []Spec
	config Config
	logger observe.Logger
}

// New creates a Warmer for a fixed set of warm-up specs.
func New(pipe *pipeline.Pipeline, specs []Spec, cfg Config) *Warmer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	return &Warmer{
		pipe:   pipe,
		specs:  specs,
		config: cfg,
		logger: cfg.Logger.WithComponent("warm"),
	}
}

// WarmAll runs every warm-up fetch and blocks until all complete or the
// timeout elapses. Intended to run once at startup, before readiness.
func (w *Warmer) WarmAll(ctx context.Context) Report {
	start := time.Now()

	if w.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.Timeout)
		defer cancel()
	}

	var (
		mu     sync.Mutex
		report Report
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.Concurrency)

	for _, spec := range w.specs {
		spec := spec
		g.Go(func() error {
			// Timed out: abandon instead of queueing on the limiter.
			if err := ctx.Err(); err != nil {
				mu.Lock()
				report.Errors = append(report.Errors, KeyError{ID: spec.ID, Err: err})
				mu.Unlock()
				return nil
			}

			_, err := w.pipe.ExecuteResource(ctx, spec.Category, spec.ID, spec.Breaker, spec.Op)

			mu.Lock()
			if err != nil {
				report.Errors = append(report.Errors, KeyError{ID: spec.ID, Err: err})
			} else {
				report.KeysWarmed++
			}
			mu.Unlock()

			if err != nil {
				w.logger.Warn(ctx, "warm-up fetch failed",
					observe.F("resource_id", spec.ID),
					observe.F("error", err.Error()))
			}
			return nil // best-effort: one failure never aborts the rest
		})
	}

	_ = g.Wait()
	report.Duration = time.Since(start)

	w.logger.Info(context.WithoutCancel(ctx), "warm-up complete",
		observe.F("warmed", report.KeysWarmed),
		observe.F("failed", len(report.Errors)),
		observe.F("duration", report.Duration.String()))

	return report
}
