package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/vector"
)

func newSim(t *testing.T, ps ...physics.Particle) *sim.Simulation {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.EnableInteraction = false
	s, err := sim.NewWithParticles(cfg, ps)
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	return s
}

func TestKineticEnergy(t *testing.T) {
	s := newSim(t,
		physics.Particle{Velocity: vector.New(3, 4, 0)}, // 12.5
		physics.Particle{Velocity: vector.New(0, 0, 1)}, // 0.5
	)
	m := NewKineticEnergy()

	m.Observe(s)
	if got := m.Value(); math.Abs(got-6.5) > 1e-6 {
		t.Errorf("expected 6.5, got %f", got)
	}
	if m.Last() != m.Value() {
		t.Errorf("expected last %f to equal value after one sample", m.Last())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyDriftFreeFall(t *testing.T) {
	s := newSim(t, physics.Particle{Position: vector.New(100, 150, 100)})
	m := NewEnergyDrift()

	m.Observe(s)
	for i := 0; i < 50; i++ {
		s.Step(0.001)
		m.Observe(s)
	}

	// semi-implicit euler is close to conservative for tiny steps
	if m.Value() > 1e-3 {
		t.Errorf("expected small drift, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestEnergyDriftBounce(t *testing.T) {
	s := newSim(t, physics.Particle{Position: vector.New(100, 0.5, 100), Velocity: vector.New(0, -10, 0)})
	m := NewEnergyDrift()

	m.Observe(s)
	s.Advance(0.1)
	m.Observe(s)

	if m.Value() < 0.1 {
		t.Errorf("expected damped bounce to lose energy, drift %f", m.Value())
	}
}

func TestContainment(t *testing.T) {
	s := newSim(t,
		physics.Particle{Position: vector.New(10, 10, 10)},
		physics.Particle{Position: vector.New(-10, 10, 10)},
	)
	c := NewContainment()

	c.Observe(s)
	if c.Value() != 0 {
		t.Errorf("expected 0 with a particle outside, got %f", c.Value())
	}

	s.ResolveCollisions()
	c.Observe(s)
	if c.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", c.Value())
	}

	c.Reset()
	if c.Value() != 1.0 {
		t.Errorf("expected 1.0 after reset, got %f", c.Value())
	}
}

func TestMeanHeight(t *testing.T) {
	s := newSim(t,
		physics.Particle{Position: vector.New(0, 10, 0)},
		physics.Particle{Position: vector.New(0, 30, 0)},
	)
	h := NewMeanHeight()
	h.Observe(s)
	if h.Value() != 20 {
		t.Errorf("expected 20, got %f", h.Value())
	}
	if Height(newSim(t)) != 0 {
		t.Error("expected zero height for empty population")
	}
}

func TestDefaults(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Defaults() {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
	if len(seen) != 4 {
		t.Errorf("expected 4 metrics, got %d", len(seen))
	}
}
