// Package physics holds the per-particle dynamics of the simulator.
//
// A [Particle] carries a position and a velocity and advances itself with
// semi-implicit Euler under a uniform gravity pulling along -Y and an optional
// short-range repulsion from its neighbours:
//
//   - [Repulsion]: pairwise contribution, k / r² spread along the offset and
//     normalised by the Manhattan distance, cut off past [Interaction.Radius]
//   - [Particle.Step]: gravity, then repulsion against a frozen snapshot of
//     neighbour positions, then position update with the new velocity
//   - [Box.Reflect]: damped reflection off the faces of the bounding volume
//
// # Snapshots
//
// Step reads neighbour positions from a slice the caller freezes before any
// particle in the frame moves. Passing live positions instead makes the
// result depend on iteration order.
//
//	snap := positions(particles)
//	for i := range particles {
//	    particles[i].Step(dt, g, field, snap)
//	}
package physics
