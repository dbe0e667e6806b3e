package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
	"github.com/san-kum/particlesim/internal/metrics"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/storage"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset and overrides only the fields it sets.
type ScenarioStep struct {
	Preset      string   `yaml:"preset"`
	Particles   *int     `yaml:"particles,omitempty"`
	Gravity     *float32 `yaml:"gravity,omitempty"`
	Interaction *bool    `yaml:"interaction,omitempty"`
	Restitution *float32 `yaml:"restitution,omitempty"`
	Dt          *float32 `yaml:"dt,omitempty"`
	Frames      *int     `yaml:"frames,omitempty"`
	Seed        *int64   `yaml:"seed,omitempty"`
	SaveAs      string   `yaml:"save_as"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}

	return &scenario, nil
}

// Config resolves the step against its preset.
func (s ScenarioStep) Config() (*config.Config, error) {
	name := s.Preset
	if name == "" {
		name = "default"
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", name)
	}

	if s.Particles != nil {
		cfg.Particles = *s.Particles
	}
	if s.Gravity != nil {
		cfg.Gravity = *s.Gravity
	}
	if s.Interaction != nil {
		cfg.Interaction.Enabled = *s.Interaction
	}
	if s.Restitution != nil {
		cfg.Restitution = *s.Restitution
	}
	if s.Dt != nil {
		cfg.Run.Dt = *s.Dt
	}
	if s.Frames != nil {
		cfg.Run.Frames = *s.Frames
	}
	if s.Seed != nil {
		cfg.Seed = *s.Seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type StepResult struct {
	Label  string
	RunID  string
	Result *experiment.Result
}

// Runner executes scenarios and sweeps. A nil Store skips persistence and a
// nil Log discards progress messages.
type Runner struct {
	Store *storage.Store
	Log   *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Log
}

func runConfig(cfg *config.Config) experiment.RunConfig {
	return experiment.RunConfig{Dt: cfg.Run.Dt, Frames: cfg.Run.Frames, SampleEvery: cfg.Run.SampleEvery}
}

func run(ctx context.Context, cfg *config.Config) (*sim.Simulation, *experiment.Result, error) {
	s, err := sim.New(cfg.Sim())
	if err != nil {
		return nil, nil, err
	}
	result, err := experiment.New(s, metrics.Defaults()...).Run(ctx, runConfig(cfg))
	return s, result, err
}

// RunScenario executes every step in order and stops at the first failure,
// returning the steps completed so far.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	log := r.logger()
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		label := step.SaveAs
		if label == "" {
			label = fmt.Sprintf("%s-step%d", scenario.Name, i+1)
		}
		log.Info("scenario step", "step", i+1, "of", len(scenario.Steps), "label", label)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		s, result, err := run(ctx, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Label: label, Result: result}
		if r.Store != nil {
			sr.RunID, err = r.Store.Save(storage.NewMetadata(label, s.Config(), runConfig(cfg)), result)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// Sweep varies one parameter linearly between Min and Max.
type Sweep struct {
	Param string
	Min   float64
	Max   float64
	Steps int
}

type SweepResult struct {
	Value   float64
	Metrics map[string]float64
	Bounces int
}

var sweepParams = map[string]func(*config.Config, float64){
	"gravity":     func(c *config.Config, v float64) { c.Gravity = float32(v) },
	"restitution": func(c *config.Config, v float64) { c.Restitution = float32(v) },
	"radius":      func(c *config.Config, v float64) { c.Interaction.Radius = float32(v) },
	"strength":    func(c *config.Config, v float64) { c.Interaction.Strength = float32(v) },
	"particles":   func(c *config.Config, v float64) { c.Particles = int(v) },
}

func SweepParams() []string {
	return []string{"gravity", "particles", "radius", "restitution", "strength"}
}

// RunSweep runs base once per sweep point. Every point reuses base's seed so
// only the swept parameter differs.
func (r *Runner) RunSweep(ctx context.Context, base *config.Config, sweep Sweep) ([]SweepResult, error) {
	apply, ok := sweepParams[sweep.Param]
	if !ok {
		return nil, fmt.Errorf("unknown sweep parameter: %s (available: %v)", sweep.Param, SweepParams())
	}
	if sweep.Steps <= 0 {
		return nil, fmt.Errorf("sweep steps must be positive, got %d", sweep.Steps)
	}

	log := r.logger()
	step := 0.0
	if sweep.Steps > 1 {
		step = (sweep.Max - sweep.Min) / float64(sweep.Steps-1)
	}

	results := make([]SweepResult, 0, sweep.Steps)
	for i := 0; i < sweep.Steps; i++ {
		v := sweep.Min + float64(i)*step
		cfg := base.Clone()
		apply(cfg, v)
		if err := cfg.Validate(); err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}

		_, result, err := run(ctx, cfg)
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}

		results = append(results, SweepResult{Value: v, Metrics: result.Metrics, Bounces: result.Bounces})
		log.Debug("sweep point", "param", sweep.Param, "value", v, "step", i+1, "of", sweep.Steps)
	}

	return results, nil
}
