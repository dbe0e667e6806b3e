package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/particlesim/internal/metrics"
)

// Registry maps metric names to constructors so hosts can select metrics
// by flag.
type Registry struct {
	metrics map[string]func() metrics.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func() metrics.Metric),
	}

	r.metrics["kinetic_energy"] = func() metrics.Metric { return metrics.NewKineticEnergy() }
	r.metrics["energy_drift"] = func() metrics.Metric { return metrics.NewEnergyDrift() }
	r.metrics["mean_height"] = func() metrics.Metric { return metrics.NewMeanHeight() }
	r.metrics["containment"] = func() metrics.Metric { return metrics.NewContainment() }

	return r
}

func (r *Registry) GetMetric(name string) (metrics.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

// Metrics builds the named metrics, or every registered metric when names
// is empty.
func (r *Registry) Metrics(names []string) ([]metrics.Metric, error) {
	if len(names) == 0 {
		names = r.ListMetrics()
	}
	out := make([]metrics.Metric, 0, len(names))
	for _, name := range names {
		m, err := r.GetMetric(name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
