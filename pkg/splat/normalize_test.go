package splat

import (
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/gsplat-palette/pkg/math"
)

// rotate applies q to v (q * v * q^-1).
func rotate(q math.Quat, v math.Vec3) math.Vec3 {
	p := math.Quat{X: v.X, Y: v.Y, Z: v.Z}
	conj := math.Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
	r := q.Mul(p).Mul(conj)
	return math.Vec3{X: r.X, Y: r.Y, Z: r.Z}
}

func assertVecNear(t *testing.T, want, got math.Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-5, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-5, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-5, "z")
}

func TestReorientZMinimum(t *testing.T) {
	s := NewSet(3)
	s.Scales[0] = math.Vec3{X: 0.1, Y: 1, Z: 2}
	s.LogScales[0] = math.Vec3{X: -1, Y: 0, Z: 1}
	s.Scales[1] = math.Vec3{X: 1, Y: 0.1, Z: 2}
	s.LogScales[1] = math.Vec3{X: 0, Y: -1, Z: 1}
	s.Scales[2] = math.Vec3{X: 1, Y: 2, Z: 0.1}

	changed := ReorientZMinimum(s)
	assert.Equal(t, 2, changed)

	for i := range s.Scales {
		assert.Equal(t, 2, s.Scales[i].MinAxis(), "splat %d", i)
	}
	assert.Equal(t, math.Vec3{X: 1, Y: 0, Z: -1}, s.LogScales[0])
	assert.Equal(t, math.Vec3{X: 0, Y: 1, Z: -1}, s.LogScales[1])
	assert.Equal(t, math.QuatIdentity(), s.Rotations[2])

	// The flat local Z axis must point where the original flat axis did.
	assertVecNear(t, math.Vec3{X: 1}, rotate(s.Rotations[0], math.Vec3{Z: 1}))
	assertVecNear(t, math.Vec3{Y: 1}, rotate(s.Rotations[1], math.Vec3{Z: 1}))
}

func TestReorientComposesWithExistingRotation(t *testing.T) {
	s := NewSet(1)
	base := math.QuatFromAxisAngle(math.Vec3{Z: 1}, stdmath.Pi/2)
	s.Rotations[0] = base
	s.Scales[0] = math.Vec3{X: 0.1, Y: 1, Z: 1}

	ReorientZMinimum(s)

	// Old local X rotated by base is world Y; new local Z must match.
	assertVecNear(t, rotate(base, math.Vec3{X: 1}), rotate(s.Rotations[0], math.Vec3{Z: 1}))
}

func TestContainerRotation(t *testing.T) {
	assert.Equal(t, math.QuatIdentity(), ContainerRotation(false))

	q := ContainerRotation(true)
	// -90 degrees about X: the source's -Y axis ends up on +Z.
	assertVecNear(t, math.Vec3{Z: 1}, rotate(q, math.Vec3{Y: -1}))
	assertVecNear(t, math.Vec3{X: 1}, rotate(q, math.Vec3{X: 1}))
}

func TestEulers(t *testing.T) {
	s := NewSet(1)
	s.Rotations[0] = math.QuatFromAxisAngle(math.Vec3{X: 1}, 0.25)
	e := s.Eulers()
	assert.InDelta(t, 0.25, e[0].X, 1e-5)
}
