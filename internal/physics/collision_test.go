package physics

import (
	"testing"

	"github.com/san-kum/particlesim/internal/vector"
)

func TestReflect(t *testing.T) {
	box := Box{Min: vector.New(0, 0, 0), Max: vector.New(200, 200, 200)}

	tests := []struct {
		name    string
		in      Particle
		wantPos vector.Vec3
		wantVel vector.Vec3
		hits    int
	}{
		{
			name:    "inside",
			in:      Particle{Position: vector.New(10, 20, 30), Velocity: vector.New(1, 2, 3)},
			wantPos: vector.New(10, 20, 30),
			wantVel: vector.New(1, 2, 3),
		},
		{
			name:    "below origin x",
			in:      Particle{Position: vector.New(-5, 50, 50), Velocity: vector.New(-3, 0, 0)},
			wantPos: vector.New(5, 50, 50),
			wantVel: vector.New(2.4, 0, 0),
			hits:    1,
		},
		{
			name:    "past far y",
			in:      Particle{Position: vector.New(50, 210, 50), Velocity: vector.New(0, 5, 0)},
			wantPos: vector.New(50, 190, 50),
			wantVel: vector.New(0, -4, 0),
			hits:    1,
		},
		{
			name:    "corner",
			in:      Particle{Position: vector.New(-1, -2, 203), Velocity: vector.New(-10, -10, 10)},
			wantPos: vector.New(1, 2, 197),
			wantVel: vector.New(8, 8, -8),
			hits:    3,
		},
		{
			name:    "on the face",
			in:      Particle{Position: vector.New(0, 200, 0), Velocity: vector.New(-1, 1, -1)},
			wantPos: vector.New(0, 200, 0),
			wantVel: vector.New(-1, 1, -1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			hits := box.Reflect(&p, DefaultRestitution)
			if hits != tt.hits {
				t.Errorf("expected %d hits, got %d", tt.hits, hits)
			}
			for axis := vector.AxisX; axis <= vector.AxisZ; axis++ {
				if !approx(p.Position.Axis(axis), tt.wantPos.Axis(axis), 1e-5) {
					t.Errorf("position = %v, want %v", p.Position, tt.wantPos)
					break
				}
			}
			for axis := vector.AxisX; axis <= vector.AxisZ; axis++ {
				if !approx(p.Velocity.Axis(axis), tt.wantVel.Axis(axis), 1e-5) {
					t.Errorf("velocity = %v, want %v", p.Velocity, tt.wantVel)
					break
				}
			}
		})
	}
}

func TestReflectOffsetOrigin(t *testing.T) {
	box := Box{Min: vector.New(10, 10, 10), Max: vector.New(20, 20, 20)}
	p := Particle{Position: vector.New(5, 15, 15), Velocity: vector.New(-3, 0, 0)}

	box.Reflect(&p, DefaultRestitution)

	if !approx(p.Position.X, 15, 1e-6) || !approx(p.Velocity.X, 2.4, 1e-6) {
		t.Errorf("unexpected state %+v", p)
	}
}

func TestBoxContains(t *testing.T) {
	box := Box{Max: vector.New(1, 1, 1)}
	if !box.Contains(vector.New(0.5, 0.5, 0.5)) {
		t.Error("expected point inside")
	}
	if !box.Contains(vector.New(1, 0, 1)) {
		t.Error("faces count as inside")
	}
	if box.Contains(vector.New(0.5, 1.5, 0.5)) {
		t.Error("expected point outside")
	}
}
