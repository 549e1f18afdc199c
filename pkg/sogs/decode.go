package sogs

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/gsplat-palette/pkg/math"
	"github.com/Faultbox/gsplat-palette/pkg/splat"
)

// QuatLimit bounds the three stored quaternion components.
const QuatLimit = 0.70710678

// Quaternion mode codes stored in the quats alpha channel. Values 1..252
// mean X was dropped.
const (
	DropW    = 255
	DropWAlt = 0
	DropZ    = 254
	DropY    = 253
)

// normalEps keeps quaternion normalisation finite.
const normalEps = 1e-8

// Decode reconstructs the splats of src.
//
// Positions, scales, rotations, colors and opacities are decoded as
// physical values. The encoded fields of the set receive what the
// canonical PLY should carry: scale and DC codebook values verbatim,
// and the inverse sigmoid of the opacity.
func Decode(src *Source) (*splat.Set, error) {
	n := src.Count
	s := splat.NewSet(n)

	mu, ml := src.Channel(MeansUpper), src.Channel(MeansLower)
	sc, qc, cc := src.Channel(ScalesName), src.Channel(QuatsName), src.Channel(SH0Name)
	means := src.Meta.Means

	for i := 0; i < n; i++ {
		ur, ug, ub, _ := mu.At(i)
		lr, lg, lb, _ := ml.At(i)
		s.Positions[i] = math.Vec3{
			X: unpackPosition(ur, lr, means.Mins[0], means.Maxs[0]),
			Y: unpackPosition(ug, lg, means.Mins[1], means.Maxs[1]),
			Z: unpackPosition(ub, lb, means.Mins[2], means.Maxs[2]),
		}

		r, g, b, _ := sc.At(i)
		enc, err := lookup3(src.Meta.Scales, r, g, b)
		if err != nil {
			return nil, &splat.FormatError{Source: ScalesName, Err: fmt.Errorf("point %d: %w", i, err)}
		}
		s.LogScales[i] = enc
		s.Scales[i] = enc.Map(nonNegative)

		r, g, b, a := qc.At(i)
		s.Rotations[i] = UnpackQuat(r, g, b, a)

		r, g, b, a = cc.At(i)
		dc, err := lookup3(src.Meta.SH0, r, g, b)
		if err != nil {
			return nil, &splat.FormatError{Source: SH0Name, Err: fmt.Errorf("point %d: %w", i, err)}
		}
		s.DC[i] = dc
		s.Colors[i] = math.Color{R: dc.X, G: dc.Y, B: dc.Z}.Clamp()
		s.Opacities[i] = float32(a) / 255
		s.Logits[i] = splat.InverseSigmoid(s.Opacities[i])
	}
	return s, nil
}

// unpackPosition joins upper and lower bytes into 16-bit fixed point and
// maps it into [lo, hi].
func unpackPosition(upper, lower uint8, lo, hi float32) float32 {
	packed := float32(uint16(upper)<<8|uint16(lower)) / 65535
	return lo + packed*(hi-lo)
}

func lookup3(cb Codebook, r, g, b uint8) (math.Vec3, error) {
	x, err := cb.Lookup(r)
	if err != nil {
		return math.Vec3{}, err
	}
	y, err := cb.Lookup(g)
	if err != nil {
		return math.Vec3{}, err
	}
	z, err := cb.Lookup(b)
	if err != nil {
		return math.Vec3{}, err
	}
	return math.Vec3{X: x, Y: y, Z: z}, nil
}

func nonNegative(v float32) float32 {
	return math32.Max(v, 0)
}

// unpackComponent maps a stored byte to [-QuatLimit, QuatLimit].
func unpackComponent(v uint8) float32 {
	return float32(v)/255*(2*QuatLimit) - QuatLimit
}

// UnpackQuat reconstructs a smallest-three quaternion. r, g, b hold the
// kept components in x, y, z, w order with the dropped one skipped; mode
// names the dropped component. The result is normalised.
func UnpackQuat(r, g, b, mode uint8) math.Quat {
	a, bb, c := unpackComponent(r), unpackComponent(g), unpackComponent(b)
	sum := a*a + bb*bb + c*c
	if sum > 1 {
		sum = 1
	}
	missing := math32.Sqrt(1 - sum)

	var q math.Quat
	switch mode {
	case DropW, DropWAlt:
		q = math.Quat{X: a, Y: bb, Z: c, W: missing}
	case DropZ:
		q = math.Quat{X: a, Y: bb, Z: missing, W: c}
	case DropY:
		q = math.Quat{X: a, Y: missing, Z: bb, W: c}
	default:
		q = math.Quat{X: missing, Y: a, Z: bb, W: c}
	}
	return q.NormalizeEps(normalEps)
}
