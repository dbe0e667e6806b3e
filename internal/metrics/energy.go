package metrics

import (
	"math"

	"github.com/san-kum/particlesim/internal/sim"
)

// Metric observes every frame of a run and reduces it to one number.
type Metric interface {
	Name() string
	Observe(s *sim.Simulation)
	Value() float64
	Reset()
}

// KineticEnergy is the mean (over frames) of the mean per-particle kinetic
// energy, unit masses.
type KineticEnergy struct {
	name    string
	samples int
	total   float64
	last    float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(s *sim.Simulation) {
	e.last = MeanKineticEnergy(s)
	e.total += e.last
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

// Last is the most recent frame's value.
func (e *KineticEnergy) Last() float64 { return e.last }

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.last = 0
	e.samples = 0
}

// MeanKineticEnergy averages particle kinetic energy over the population.
func MeanKineticEnergy(s *sim.Simulation) float64 {
	n := s.ParticleCount()
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		p, _ := s.Particle(i)
		sum += float64(p.KineticEnergy())
	}
	return sum / float64(n)
}

// EnergyDrift tracks the largest relative change of total mechanical energy
// (kinetic plus gravitational potential above the floor) from the first
// observed frame. Bounces and repulsion both change it; zero means a
// conservative run.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s *sim.Simulation) {
	energy := TotalEnergy(s)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

func TotalEnergy(s *sim.Simulation) float64 {
	g := float64(s.Gravity())
	floor := float64(s.Origin().Y)
	total := 0.0
	for _, p := range s.Particles() {
		total += float64(p.KineticEnergy()) + g*(float64(p.Position.Y)-floor)
	}
	return total
}
