package experiment

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/particlesim/internal/metrics"
	"github.com/san-kum/particlesim/internal/sim"
)

// Ensemble runs independent simulations that differ only in seed, one
// goroutine per run. Nothing is shared between runs.
type Ensemble struct {
	cfg       sim.Config
	numRuns   int
	seedStart int64
	metrics   func() []metrics.Metric
}

// NewEnsemble prepares numRuns runs seeded seedStart, seedStart+1, ...
// newMetrics is called once per run; nil means no metrics.
func NewEnsemble(cfg sim.Config, numRuns int, seedStart int64, newMetrics func() []metrics.Metric) *Ensemble {
	return &Ensemble{cfg: cfg, numRuns: numRuns, seedStart: seedStart, metrics: newMetrics}
}

func (e *Ensemble) Run(ctx context.Context, rc RunConfig) ([]*Result, error) {
	if e.numRuns <= 0 {
		return nil, fmt.Errorf("ensemble size must be positive, got %d", e.numRuns)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validate(rc); err != nil {
		return nil, err
	}

	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfg := e.cfg
			cfg.Seed = e.seedStart + int64(idx)

			s, err := sim.New(cfg)
			if err != nil {
				errs[idx] = err
				return
			}

			var ms []metrics.Metric
			if e.metrics != nil {
				ms = e.metrics()
			}
			results[idx], errs[idx] = New(s, ms...).Run(ctx, rc)
		}(i)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
	}

	return results, nil
}

// Mean averages one metric over a set of results.
func Mean(results []*Result, metric string) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Metrics[metric]
	}
	return sum / float64(len(results))
}
