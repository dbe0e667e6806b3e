package viz

import (
	"math"

	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/vector"
)

// point is a view-space coordinate. The volume is mapped so its longest
// side spans [-1, 1].
type point struct{ X, Y, Z float64 }

type frame struct {
	center point
	half   float64
}

func newFrame(box physics.Box) frame {
	size := box.Size()
	half := math.Max(float64(size.X), math.Max(float64(size.Y), float64(size.Z))) / 2
	if half <= 0 {
		half = 1
	}
	return frame{
		center: point{
			float64(box.Min.X) + float64(size.X)/2,
			float64(box.Min.Y) + float64(size.Y)/2,
			float64(box.Min.Z) + float64(size.Z)/2,
		},
		half: half,
	}
}

func (f frame) point(v vector.Vec3) point {
	return point{
		(float64(v.X) - f.center.X) / f.half,
		(float64(v.Y) - f.center.Y) / f.half,
		(float64(v.Z) - f.center.Z) / f.half,
	}
}

// Camera is an orbiting perspective projection around the volume center.
type Camera struct {
	RotX, RotY, RotZ float64
	Zoom             float64
	Distance         float64
	Near             float64
}

func NewCamera() *Camera {
	return &Camera{RotX: -0.35, RotY: 0.6, Zoom: 1, Distance: 4, Near: 0.1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p point) point {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// project maps a view-space point onto a w x h dot grid. The result may lie
// off the grid; ok is false only for points behind the near plane. Screen y
// grows downward, so world up is drawn up.
func (c *Camera) project(p point, w, h int) (x, y int, ok bool) {
	r := c.rotate(p)
	r.X, r.Y, r.Z = r.X*c.Zoom, r.Y*c.Zoom, r.Z*c.Zoom
	if r.Z >= c.Distance-c.Near {
		return 0, 0, false
	}
	scale := c.Distance / (c.Distance - r.Z)
	unit := float64(min(w, h)) / 6
	x = int(math.Round(r.X*scale*unit)) + w/2
	y = int(math.Round(-r.Y*scale*unit)) + h/2
	return x, y, true
}

var boxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

func corners(box physics.Box) [8]vector.Vec3 {
	var out [8]vector.Vec3
	for i := range out {
		v := box.Min
		if i&1 != 0 {
			v.X = box.Max.X
		}
		if i&2 != 0 {
			v.Y = box.Max.Y
		}
		if i&4 != 0 {
			v.Z = box.Max.Z
		}
		out[i] = v
	}
	return out
}

// Render draws the volume outline and one dot per particle position, and
// returns how many particles landed on the canvas.
func Render(c *Canvas, cam *Camera, box physics.Box, positions []vector.Vec3) int {
	if c == nil || cam == nil {
		return 0
	}
	w, h := c.Dots()
	f := newFrame(box)

	cs := corners(box)
	for _, e := range boxEdges {
		x0, y0, ok0 := cam.project(f.point(cs[e[0]]), w, h)
		x1, y1, ok1 := cam.project(f.point(cs[e[1]]), w, h)
		if ok0 && ok1 {
			c.Line(x0, y0, x1, y1)
		}
	}

	visible := 0
	for _, p := range positions {
		if x, y, ok := cam.project(f.point(p), w, h); ok && x >= 0 && x < w && y >= 0 && y < h {
			c.Set(x, y)
			visible++
		}
	}
	return visible
}
