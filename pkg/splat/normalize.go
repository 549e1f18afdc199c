package splat

import (
	stdmath "math"

	"github.com/Faultbox/gsplat-palette/pkg/math"
)

// Corrective local rotations applied by ReorientZMinimum.
var (
	// fixXToZ is +90 degrees about Y: the old X extent becomes Z.
	fixXToZ = math.QuatFromWXYZ(0.70710678, 0, 0.70710678, 0)
	// fixYToZ is -90 degrees about X: the old Y extent becomes Z.
	fixYToZ = math.QuatFromWXYZ(0.70710678, -0.70710678, 0, 0)
)

// ReorientZMinimum makes Z the smallest scale axis of every splat.
//
// When X (or Y) is the smallest axis its extent is swapped with Z in both
// physical and log scales, and the rotation is right-multiplied by the
// matching corrective quaternion so the rendered splat is unchanged.
// It returns how many splats were reoriented.
func ReorientZMinimum(s *Set) int {
	changed := 0
	for i := range s.Scales {
		switch s.Scales[i].MinAxis() {
		case 0:
			s.Scales[i] = s.Scales[i].SwapAxes(0, 2)
			s.LogScales[i] = s.LogScales[i].SwapAxes(0, 2)
			s.Rotations[i] = s.Rotations[i].Mul(fixXToZ)
			changed++
		case 1:
			s.Scales[i] = s.Scales[i].SwapAxes(1, 2)
			s.LogScales[i] = s.LogScales[i].SwapAxes(1, 2)
			s.Rotations[i] = s.Rotations[i].Mul(fixYToZ)
			changed++
		}
	}
	return changed
}

// ContainerRotation returns the rigid rotation applied once to the whole
// object: -90 degrees about X when converting Y-up sources to Z-up,
// identity otherwise.
func ContainerRotation(yUpToZUp bool) math.Quat {
	if !yUpToZUp {
		return math.QuatIdentity()
	}
	return math.QuatFromAxisAngle(math.Vec3{X: 1}, -stdmath.Pi/2)
}

// Eulers returns XYZ Euler angles for every rotation.
func (s *Set) Eulers() []math.Vec3 {
	out := make([]math.Vec3, len(s.Rotations))
	for i, q := range s.Rotations {
		out[i] = q.ToEuler()
	}
	return out
}
