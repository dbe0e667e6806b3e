// Package sim orchestrates a particle population inside a bounded volume.
//
// A [Simulation] is driven once per frame by its owner:
//
//	s, err := sim.New(sim.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	for frame := 0; frame < n; frame++ {
//	    s.Step(0.1)
//	    s.ResolveCollisions()
//	    buf = s.Pack(buf[:0])
//	}
//
// Step and ResolveCollisions are separate so the caller decides the order;
// [Simulation.Advance] runs both. Read accessors copy particle state out and
// never hand back references into the internal collection.
//
// # Configuration errors
//
// Degenerate configurations (negative counts, empty or inverted volumes,
// restitution outside [0, 1]) are rejected by [New] with a [*ConfigError]
// wrapping [ErrInvalidConfig]. Extent setters return [ErrInvalidBounds] and
// [Simulation.SetGravity] rejects NaN and Inf the same way New does.
package sim
