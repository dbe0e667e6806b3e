package sim

import (
	"errors"
	"fmt"
)

// Domain errors for simulation construction and mutation.
var (
	// ErrInvalidConfig indicates a configuration that cannot describe a simulation.
	ErrInvalidConfig = errors.New("sim: invalid configuration")

	// ErrInvalidBounds indicates a volume extent that is zero, negative or not finite.
	ErrInvalidBounds = errors.New("sim: invalid volume bounds")

	// ErrInvalidParticle indicates a supplied particle with NaN or Inf state.
	ErrInvalidParticle = errors.New("sim: invalid particle state (NaN or Inf detected)")
)

// ConfigError wraps ErrInvalidConfig with the offending field.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s = %v: %s", ErrInvalidConfig, e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
