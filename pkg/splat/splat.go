// Package splat holds decoded 3D Gaussian splats and converts them
// to and from the canonical uncompressed PLY layout.
package splat

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/gsplat-palette/pkg/math"
)

// SHC0 is the order-0 spherical harmonic basis constant.
const SHC0 = 0.28209479177387814

// Defaults used when a source omits an attribute.
const (
	DefaultScale    = 0.01
	DefaultLogScale = -4.6
)

// Set is an ordered collection of splats stored as parallel arrays.
// Index i addresses the same splat in every array.
//
// Encoded fields (LogScales, Logits, DC) hold the values written to the
// canonical PLY; physical fields hold the decoded parameters.
type Set struct {
	Positions []math.Vec3
	Scales    []math.Vec3 // physical, never negative
	LogScales []math.Vec3 // scale_0..2 as stored
	Rotations []math.Quat
	Opacities []float32 // physical, [0,1]
	Logits    []float32 // opacity as stored
	Colors    []math.Color
	DC        []math.Vec3 // f_dc_0..2 as stored
}

// NewSet allocates n splats initialised to the documented defaults:
// origin, 0.01 scale, identity rotation, logit 0 with opacity 1, white.
func NewSet(n int) *Set {
	s := &Set{
		Positions: make([]math.Vec3, n),
		Scales:    make([]math.Vec3, n),
		LogScales: make([]math.Vec3, n),
		Rotations: make([]math.Quat, n),
		Opacities: make([]float32, n),
		Logits:    make([]float32, n),
		Colors:    make([]math.Color, n),
		DC:        make([]math.Vec3, n),
	}
	white := ColorToDC(math.White)
	for i := 0; i < n; i++ {
		s.Scales[i] = math.Vec3{X: DefaultScale, Y: DefaultScale, Z: DefaultScale}
		s.LogScales[i] = math.Vec3{X: DefaultLogScale, Y: DefaultLogScale, Z: DefaultLogScale}
		s.Rotations[i] = math.QuatIdentity()
		s.Opacities[i] = 1
		s.Colors[i] = math.White
		s.DC[i] = white
	}
	return s
}

// Len returns the number of splats.
func (s *Set) Len() int {
	return len(s.Positions)
}

// Sigmoid maps a logit to an opacity.
func Sigmoid(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}

// InverseSigmoid maps an opacity to a logit. The input is clipped to
// [1e-4, 1-1e-4] so the result stays finite.
func InverseSigmoid(p float32) float32 {
	const eps = 1e-4
	if p < eps {
		p = eps
	}
	if p > 1-eps {
		p = 1 - eps
	}
	return math32.Log(p / (1 - p))
}

// DCToColor converts SH DC coefficients to an RGB color clipped to [0,1].
func DCToColor(dc math.Vec3) math.Color {
	return math.Color{
		R: dc.X*SHC0 + 0.5,
		G: dc.Y*SHC0 + 0.5,
		B: dc.Z*SHC0 + 0.5,
	}.Clamp()
}

// ColorToDC is the inverse of DCToColor for in-range colors.
func ColorToDC(c math.Color) math.Vec3 {
	return math.Vec3{
		X: (c.R - 0.5) / SHC0,
		Y: (c.G - 0.5) / SHC0,
		Z: (c.B - 0.5) / SHC0,
	}
}
