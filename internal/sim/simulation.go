package sim

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/vector"
)

// PackStride is the number of float32 values Pack writes per particle.
const PackStride = 6

// Simulation owns a particle population inside an axis-aligned volume. It is
// not safe for concurrent use; the owner steps it and reads it back on one
// goroutine.
type Simulation struct {
	origin    vector.Vec3
	corner    vector.Vec3
	particles []physics.Particle
	cfg       Config
	rng       *rand.Rand
	snapshot  []vector.Vec3
	time      float64
	frame     int
}

// New validates cfg and populates the volume with cfg.ParticleCount
// randomized particles drawn from a source seeded with cfg.Seed.
func New(cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := newSimulation(cfg)
	s.particles = make([]physics.Particle, 0, cfg.ParticleCount)
	s.spawn(cfg.ParticleCount)
	return s, nil
}

// NewWithParticles builds a simulation around a caller-supplied initial
// population. The slice is copied and cfg.ParticleCount is taken from it.
func NewWithParticles(cfg Config, particles []physics.Particle) (*Simulation, error) {
	cfg.ParticleCount = len(particles)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for i, p := range particles {
		if !p.IsFinite() {
			return nil, fmt.Errorf("particle %d: %w", i, ErrInvalidParticle)
		}
	}

	s := newSimulation(cfg)
	s.particles = make([]physics.Particle, len(particles))
	copy(s.particles, particles)
	return s, nil
}

func newSimulation(cfg Config) *Simulation {
	return &Simulation{
		corner: vector.New(cfg.Width, cfg.Height, cfg.Depth),
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (s *Simulation) spawn(n int) {
	for i := 0; i < n; i++ {
		s.particles = append(s.particles, physics.NewRandomParticle(s.rng, s.cfg.SpawnSpan, s.cfg.VelocitySpan))
	}
}

// Step advances every particle by dt. All force evaluations in a step read
// the same snapshot of positions taken before any particle moves, so the
// outcome does not depend on the order of the collection.
func (s *Simulation) Step(dt float32) {
	s.snapshot = s.snapshot[:0]
	for i := range s.particles {
		s.snapshot = append(s.snapshot, s.particles[i].Position)
	}

	field := s.cfg.interaction()
	for i := range s.particles {
		s.particles[i].Step(dt, s.cfg.Gravity, field, s.snapshot)
	}

	s.time += float64(dt)
	s.frame++
}

// ResolveCollisions reflects particles that left the volume back inside and
// returns the number of faces hit across the population.
func (s *Simulation) ResolveCollisions() int {
	box := s.Bounds()
	hits := 0
	for i := range s.particles {
		hits += box.Reflect(&s.particles[i], s.cfg.Restitution)
	}
	return hits
}

// Advance is Step followed by ResolveCollisions.
func (s *Simulation) Advance(dt float32) int {
	s.Step(dt)
	return s.ResolveCollisions()
}

// Resize truncates the population to n or extends it with freshly
// randomized particles. The configured particle count follows.
func (s *Simulation) Resize(n int) error {
	if n < 0 {
		return &ConfigError{Field: "ParticleCount", Value: n, Reason: "must not be negative"}
	}
	if n <= len(s.particles) {
		clear(s.particles[n:])
		s.particles = s.particles[:n]
	} else {
		s.spawn(n - len(s.particles))
	}
	s.cfg.ParticleCount = n
	return nil
}

func (s *Simulation) ParticleCount() int { return len(s.particles) }

// Particle returns a copy of the i-th particle.
func (s *Simulation) Particle(i int) (physics.Particle, bool) {
	if i < 0 || i >= len(s.particles) {
		return physics.Particle{}, false
	}
	return s.particles[i], true
}

// Particles returns a copy of the population.
func (s *Simulation) Particles() []physics.Particle {
	out := make([]physics.Particle, len(s.particles))
	copy(out, s.particles)
	return out
}

// Positions appends every particle position to dst and returns the result.
func (s *Simulation) Positions(dst []vector.Vec3) []vector.Vec3 {
	for i := range s.particles {
		dst = append(dst, s.particles[i].Position)
	}
	return dst
}

// Pack appends px, py, pz, vx, vy, vz for every particle to dst, the flat
// layout a renderer can upload directly.
func (s *Simulation) Pack(dst []float32) []float32 {
	for i := range s.particles {
		p := &s.particles[i]
		dst = append(dst,
			p.Position.X, p.Position.Y, p.Position.Z,
			p.Velocity.X, p.Velocity.Y, p.Velocity.Z,
		)
	}
	return dst
}

func (s *Simulation) Origin() vector.Vec3 { return s.origin }
func (s *Simulation) Corner() vector.Vec3 { return s.corner }

func (s *Simulation) Bounds() physics.Box {
	return physics.Box{Min: s.origin, Max: s.corner}
}

func (s *Simulation) Width() float32  { return s.corner.X }
func (s *Simulation) Height() float32 { return s.corner.Y }
func (s *Simulation) Depth() float32  { return s.corner.Z }

// SetWidth moves the far corner along x. Existing particles are not moved;
// the new bound applies from the next collision pass.
func (s *Simulation) SetWidth(w float32) error {
	return s.setExtent(vector.AxisX, w)
}

func (s *Simulation) SetHeight(h float32) error {
	return s.setExtent(vector.AxisY, h)
}

func (s *Simulation) SetDepth(d float32) error {
	return s.setExtent(vector.AxisZ, d)
}

func (s *Simulation) setExtent(axis int, v float32) error {
	if err := checkExtent(v); err != nil {
		return fmt.Errorf("extent %v on axis %d: %w", v, axis, err)
	}
	s.corner = s.corner.WithAxis(axis, v)
	switch axis {
	case vector.AxisX:
		s.cfg.Width = v
	case vector.AxisY:
		s.cfg.Height = v
	default:
		s.cfg.Depth = v
	}
	return nil
}

func (s *Simulation) Gravity() float32 { return s.cfg.Gravity }

// SetGravity changes the downward acceleration from the next step on. NaN
// and Inf are rejected and leave gravity unchanged.
func (s *Simulation) SetGravity(g float32) error {
	if !isFinite(g) {
		return &ConfigError{Field: "Gravity", Value: g, Reason: "must be finite"}
	}
	s.cfg.Gravity = g
	return nil
}

func (s *Simulation) Interaction() physics.Interaction { return s.cfg.interaction() }

func (s *Simulation) SetInteraction(enabled bool) { s.cfg.EnableInteraction = enabled }

func (s *Simulation) Restitution() float32 { return s.cfg.Restitution }

// Config returns a copy of the current configuration, including any changes
// made through setters and Resize.
func (s *Simulation) Config() Config { return s.cfg }

// Time is the simulated time accumulated by Step.
func (s *Simulation) Time() float64 { return s.time }

// Frame is the number of Step calls so far.
func (s *Simulation) Frame() int { return s.frame }
