package physics

import "github.com/san-kum/particlesim/internal/vector"

const DefaultRestitution = 0.8

// Box is the axis-aligned volume spanned by Min (origin) and Max (far corner).
type Box struct {
	Min, Max vector.Vec3
}

func (b Box) Size() vector.Vec3 { return b.Max.Sub(b.Min) }

func (b Box) Contains(p vector.Vec3) bool {
	for axis := vector.AxisX; axis <= vector.AxisZ; axis++ {
		v := p.Axis(axis)
		if v < b.Min.Axis(axis) || v > b.Max.Axis(axis) {
			return false
		}
	}
	return true
}

// Reflect mirrors any penetration of a box face back inside and damps the
// velocity component along that axis by -restitution. Axes are handled
// independently, so a corner hit reflects several at once. It returns the
// number of faces hit.
//
// This is a positional correction after integration: a particle that
// overshoots by more than the box size is not guaranteed to end up inside.
func (b Box) Reflect(p *Particle, restitution float32) int {
	hits := 0
	for axis := vector.AxisX; axis <= vector.AxisZ; axis++ {
		lo, hi := b.Min.Axis(axis), b.Max.Axis(axis)
		pos, vel := p.Position.Axis(axis), p.Velocity.Axis(axis)

		if pos < lo {
			pos = lo - (pos - lo)
			vel *= -restitution
			hits++
		}
		if pos > hi {
			pos = hi - (pos - hi)
			vel *= -restitution
			hits++
		}

		p.Position = p.Position.WithAxis(axis, pos)
		p.Velocity = p.Velocity.WithAxis(axis, vel)
	}
	return hits
}
