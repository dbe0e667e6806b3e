package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVec3Arithmetic(t *testing.T) {
	a := New(1, 2, 3)
	b := New(4, 5, 6)

	assert.Equal(t, Vec3{5, 7, 9}, a.Add(b), "add")
	assert.Equal(t, Vec3{3, 3, 3}, b.Sub(a), "sub")
	assert.Equal(t, Vec3{2, 4, 6}, a.Scale(2), "scale")
	assert.Equal(t, float32(14), a.LenSq(), "lensq")

	// values are copies
	a.Add(b)
	assert.Equal(t, Vec3{1, 2, 3}, a)
}

func TestVec3L1(t *testing.T) {
	tests := []struct {
		v    Vec3
		want float32
	}{
		{Vec3{}, 0},
		{Vec3{1, 1, 1}, 3},
		{Vec3{-1, 2, -3}, 6},
		{Vec3{0, -40, 0}, 40},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.L1(), "L1(%v)", tt.v)
	}
}

func TestVec3Equal(t *testing.T) {
	assert.True(t, New(1, 2, 3).Equal(New(1, 2, 3)))
	assert.False(t, New(1, 2, 3).Equal(New(1, 2, 3.5)))
	assert.True(t, Vec3{}.IsZero())
	assert.False(t, New(0, 0, 1e-6).IsZero())
}

func TestVec3Axis(t *testing.T) {
	v := New(1, 2, 3)
	require.Equal(t, float32(1), v.Axis(AxisX))
	require.Equal(t, float32(2), v.Axis(AxisY))
	require.Equal(t, float32(3), v.Axis(AxisZ))

	w := v.WithAxis(AxisY, 9)
	assert.Equal(t, Vec3{1, 9, 3}, w)
	assert.Equal(t, Vec3{1, 2, 3}, v, "WithAxis must not mutate the receiver")
}

func TestVec3Finite(t *testing.T) {
	assert.True(t, New(1, -2, 3).IsFinite())
	assert.False(t, New(float32(math.NaN()), 0, 0).IsFinite())
	assert.False(t, New(0, float32(math.Inf(1)), 0).IsFinite())
	assert.False(t, New(0, 0, float32(math.Inf(-1))).IsFinite())
}
