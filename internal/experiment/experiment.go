package experiment

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/particlesim/internal/metrics"
	"github.com/san-kum/particlesim/internal/sim"
)

var ErrNotSetup = errors.New("experiment: simulation not set")

type RunConfig struct {
	Dt          float32
	Frames      int
	SampleEvery int
}

// Result collects what a headless run observed. Frames holds packed
// snapshots (sim.PackStride floats per particle) taken at Times.
type Result struct {
	Times      []float64
	Frames     [][]float32
	Energy     []float64
	Height     []float64
	Metrics    map[string]float64
	Bounces    int
	StepsTaken int
	Seed       int64
}

// Observer is notified after every advanced frame.
type Observer interface {
	OnFrame(s *sim.Simulation)
}

type Experiment struct {
	sim       *sim.Simulation
	metrics   []metrics.Metric
	observers []Observer
}

func New(s *sim.Simulation, ms ...metrics.Metric) *Experiment {
	return &Experiment{sim: s, metrics: ms}
}

func (e *Experiment) AddMetric(m metrics.Metric) { e.metrics = append(e.metrics, m) }
func (e *Experiment) AddObserver(o Observer)     { e.observers = append(e.observers, o) }

func (e *Experiment) Simulation() *sim.Simulation { return e.sim }

// Run advances the simulation cfg.Frames times, observing metrics on every
// frame and sampling positions every cfg.SampleEvery frames. The initial
// state is always sampled. On cancellation the partial result is returned
// together with the context error.
func (e *Experiment) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if e.sim == nil {
		return nil, ErrNotSetup
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	samples := cfg.Frames/cfg.SampleEvery + 1
	result := &Result{
		Times:   make([]float64, 0, samples),
		Frames:  make([][]float32, 0, samples),
		Energy:  make([]float64, 0, samples),
		Height:  make([]float64, 0, samples),
		Metrics: make(map[string]float64),
		Seed:    e.sim.Config().Seed,
	}

	for _, m := range e.metrics {
		m.Reset()
		m.Observe(e.sim)
	}
	e.sample(result)

	for i := 1; i <= cfg.Frames; i++ {
		select {
		case <-ctx.Done():
			e.collect(result)
			return result, ctx.Err()
		default:
		}

		result.Bounces += e.sim.Advance(cfg.Dt)
		result.StepsTaken++

		for _, m := range e.metrics {
			m.Observe(e.sim)
		}
		for _, o := range e.observers {
			o.OnFrame(e.sim)
		}

		if i%cfg.SampleEvery == 0 || i == cfg.Frames {
			e.sample(result)
		}
	}

	e.collect(result)
	return result, nil
}

func (e *Experiment) sample(r *Result) {
	r.Times = append(r.Times, e.sim.Time())
	r.Frames = append(r.Frames, e.sim.Pack(nil))
	r.Energy = append(r.Energy, metrics.MeanKineticEnergy(e.sim))
	r.Height = append(r.Height, metrics.Height(e.sim))
}

func (e *Experiment) collect(r *Result) {
	for _, m := range e.metrics {
		r.Metrics[m.Name()] = m.Value()
	}
}

func validate(cfg RunConfig) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Frames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", cfg.Frames)
	}
	if cfg.SampleEvery <= 0 {
		return fmt.Errorf("sample interval must be positive, got %d", cfg.SampleEvery)
	}
	return nil
}
