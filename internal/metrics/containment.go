package metrics

import "github.com/san-kum/particlesim/internal/sim"

// Containment is the fraction of observed frames in which every particle sat
// inside the volume. Anything below 1 means particles tunnelled further than
// one reflection can correct.
type Containment struct {
	name       string
	violations int
	samples    int
}

func NewContainment() *Containment {
	return &Containment{name: "containment"}
}

func (c *Containment) Name() string { return c.name }

func (c *Containment) Observe(s *sim.Simulation) {
	c.samples++
	box := s.Bounds()
	for _, p := range s.Particles() {
		if !box.Contains(p.Position) {
			c.violations++
			return
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}

type MeanHeight struct {
	name    string
	samples int
	total   float64
}

func NewMeanHeight() *MeanHeight {
	return &MeanHeight{name: "mean_height"}
}

func (h *MeanHeight) Name() string { return h.name }

func (h *MeanHeight) Observe(s *sim.Simulation) {
	h.total += Height(s)
	h.samples++
}

func (h *MeanHeight) Value() float64 {
	if h.samples == 0 {
		return 0
	}
	return h.total / float64(h.samples)
}

func (h *MeanHeight) Reset() {
	h.total = 0
	h.samples = 0
}

// Height is the mean particle y coordinate.
func Height(s *sim.Simulation) float64 {
	n := s.ParticleCount()
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		p, _ := s.Particle(i)
		sum += float64(p.Position.Y)
	}
	return sum / float64(n)
}

// Defaults is the metric set recorded for every run.
func Defaults() []Metric {
	return []Metric{
		NewKineticEnergy(),
		NewEnergyDrift(),
		NewMeanHeight(),
		NewContainment(),
	}
}
