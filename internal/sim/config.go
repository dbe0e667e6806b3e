package sim

import (
	"math"

	"github.com/san-kum/particlesim/internal/physics"
)

const (
	DefaultParticleCount = 1000
	DefaultGravity       = 9.81
	DefaultExtent        = 200.0
	DefaultSpawnSpan     = 200.0
	DefaultVelocitySpan  = 10.0
)

// Config holds the tunable parameters of a Simulation. The volume origin is
// fixed at zero; Width, Height and Depth place the far corner along x, y, z.
type Config struct {
	ParticleCount       int
	Gravity             float32
	EnableInteraction   bool
	InteractionRadius   float32
	InteractionStrength float32
	Restitution         float32
	Width               float32
	Height              float32
	Depth               float32
	SpawnSpan           float32
	VelocitySpan        float32
	Seed                int64
}

func DefaultConfig() Config {
	return Config{
		ParticleCount:       DefaultParticleCount,
		Gravity:             DefaultGravity,
		EnableInteraction:   true,
		InteractionRadius:   physics.DefaultInteractionRadius,
		InteractionStrength: physics.DefaultInteractionStrength,
		Restitution:         physics.DefaultRestitution,
		Width:               DefaultExtent,
		Height:              DefaultExtent,
		Depth:               DefaultExtent,
		SpawnSpan:           DefaultSpawnSpan,
		VelocitySpan:        DefaultVelocitySpan,
	}
}

// Validate reports the first field that makes the configuration unusable.
func (c Config) Validate() error {
	switch {
	case c.ParticleCount < 0:
		return &ConfigError{Field: "ParticleCount", Value: c.ParticleCount, Reason: "must not be negative"}
	case !isFinite(c.Gravity):
		return &ConfigError{Field: "Gravity", Value: c.Gravity, Reason: "must be finite"}
	case !isFinite(c.InteractionRadius) || c.InteractionRadius < 0:
		return &ConfigError{Field: "InteractionRadius", Value: c.InteractionRadius, Reason: "must be finite and not negative"}
	case !isFinite(c.InteractionStrength):
		return &ConfigError{Field: "InteractionStrength", Value: c.InteractionStrength, Reason: "must be finite"}
	case !isFinite(c.Restitution) || c.Restitution < 0 || c.Restitution > 1:
		return &ConfigError{Field: "Restitution", Value: c.Restitution, Reason: "must be within [0, 1]"}
	case !isFinite(c.SpawnSpan) || c.SpawnSpan < 0:
		return &ConfigError{Field: "SpawnSpan", Value: c.SpawnSpan, Reason: "must be finite and not negative"}
	case !isFinite(c.VelocitySpan) || c.VelocitySpan < 0:
		return &ConfigError{Field: "VelocitySpan", Value: c.VelocitySpan, Reason: "must be finite and not negative"}
	}

	for _, ext := range []struct {
		name string
		v    float32
	}{{"Width", c.Width}, {"Height", c.Height}, {"Depth", c.Depth}} {
		if checkExtent(ext.v) != nil {
			return &ConfigError{Field: ext.name, Value: ext.v, Reason: "must be finite and positive"}
		}
	}
	return nil
}

func (c Config) interaction() physics.Interaction {
	return physics.Interaction{
		Enabled:  c.EnableInteraction,
		Radius:   c.InteractionRadius,
		Strength: c.InteractionStrength,
	}
}

func checkExtent(v float32) error {
	if !isFinite(v) || v <= 0 {
		return ErrInvalidBounds
	}
	return nil
}

func isFinite(f float32) bool {
	x := float64(f)
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
