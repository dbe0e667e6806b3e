package physics

import (
	"math"
	"math/rand"

	"github.com/san-kum/particlesim/internal/vector"
)

const (
	DefaultInteractionRadius   = 40.0
	DefaultInteractionStrength = 1.0
)

type Particle struct {
	Position vector.Vec3
	Velocity vector.Vec3
}

// NewRandomParticle draws position components in [0, span) and velocity
// components in [0, velocitySpan).
func NewRandomParticle(rng *rand.Rand, span, velocitySpan float32) Particle {
	return Particle{
		Position: vector.Vec3{
			X: rng.Float32() * span,
			Y: rng.Float32() * span,
			Z: rng.Float32() * span,
		},
		Velocity: vector.Vec3{
			X: rng.Float32() * velocitySpan,
			Y: rng.Float32() * velocitySpan,
			Z: rng.Float32() * velocitySpan,
		},
	}
}

// Interaction configures the short-range pairwise repulsion.
type Interaction struct {
	Enabled  bool
	Radius   float32
	Strength float32
}

func DefaultInteraction() Interaction {
	return Interaction{
		Enabled:  true,
		Radius:   DefaultInteractionRadius,
		Strength: DefaultInteractionStrength,
	}
}

// Repulsion returns the velocity change a particle receives from a neighbour
// at offset d (self minus neighbour). Pairs that coincide, sit beyond the
// Manhattan cutoff or produce a non-finite force contribute nothing.
func Repulsion(d vector.Vec3, field Interaction) vector.Vec3 {
	if d.IsZero() {
		return vector.Vec3{}
	}

	magnitude := d.L1()
	if magnitude == 0 || magnitude > field.Radius {
		return vector.Vec3{}
	}

	// inverse-square in the squared euclidean distance, spread along the L1 direction
	force := field.Strength / d.LenSq()
	scale := force / magnitude
	if math.IsInf(float64(scale), 0) || math.IsNaN(float64(scale)) {
		return vector.Vec3{}
	}

	return d.Scale(scale)
}

// Step advances the particle by dt with semi-implicit Euler. others is the
// frozen set of positions from the start of the frame; it may contain the
// particle's own position, which is skipped as a coincident pair.
func (p *Particle) Step(dt, gravity float32, field Interaction, others []vector.Vec3) {
	p.Velocity.Y -= gravity * dt

	if field.Enabled {
		for _, q := range others {
			p.Velocity = p.Velocity.Add(Repulsion(p.Position.Sub(q), field))
		}
	}

	p.Position = p.Position.Add(p.Velocity.Scale(dt))
}

func (p Particle) IsFinite() bool {
	return p.Position.IsFinite() && p.Velocity.IsFinite()
}

// KineticEnergy assumes unit mass.
func (p Particle) KineticEnergy() float32 {
	return 0.5 * p.Velocity.LenSq()
}
