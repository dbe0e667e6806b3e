// Package vector provides the 3-component float32 value type used for particle
// positions and velocities.
package vector

import "math"

// Vec3 is a position or velocity. It is passed and stored by value.
type Vec3 struct {
	X, Y, Z float32
}

// Axis indices for per-axis loops.
const (
	AxisX = iota
	AxisY
	AxisZ
)

func New(x, y, z float32) Vec3 { return Vec3{x, y, z} }

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Equal(o Vec3) bool    { return v.X == o.X && v.Y == o.Y && v.Z == o.Z }
func (v Vec3) IsZero() bool         { return v.X == 0 && v.Y == 0 && v.Z == 0 }
func (v Vec3) LenSq() float32       { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }

// L1 is the Manhattan norm |x| + |y| + |z|.
func (v Vec3) L1() float32 {
	return abs(v.X) + abs(v.Y) + abs(v.Z)
}

// Axis returns the component at index i (AxisX, AxisY or AxisZ).
func (v Vec3) Axis(i int) float32 {
	switch i {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// WithAxis returns a copy of v with component i replaced.
func (v Vec3) WithAxis(i int, val float32) Vec3 {
	switch i {
	case AxisX:
		v.X = val
	case AxisY:
		v.Y = val
	default:
		v.Z = val
	}
	return v
}

func (v Vec3) IsFinite() bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

func finite(f float32) bool {
	x := float64(f)
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
