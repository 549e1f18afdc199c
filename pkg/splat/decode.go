package splat

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/gsplat-palette/pkg/math"
	"github.com/Faultbox/gsplat-palette/pkg/ply"
)

// DecodeOptions tunes raw PLY decoding.
type DecodeOptions struct {
	// RenormalizeRotations normalises rot_0..3. Off by default: raw PLY
	// rotations are used exactly as stored.
	RenormalizeRotations bool
}

// FromPLY decodes a parsed PLY cloud into a Set.
//
// Positions are required. Opacity, scale, rotation and color fall back
// to the NewSet defaults when their properties are missing or incomplete.
func FromPLY(cloud *ply.Cloud, opts DecodeOptions) (*Set, error) {
	n := cloud.Len()
	s := NewSet(n)

	xyz, err := cloud.Columns("x", "y", "z")
	if err != nil {
		return nil, &FormatError{Source: "ply", Err: fmt.Errorf("reading positions: %w", err)}
	}
	for i := 0; i < n; i++ {
		s.Positions[i] = math.Vec3{X: xyz[0][i], Y: xyz[1][i], Z: xyz[2][i]}
	}

	if logits, err := cloud.Float32s("opacity"); err == nil {
		for i, l := range logits {
			s.Logits[i] = l
			s.Opacities[i] = Sigmoid(l)
		}
	}

	if names := cloud.Header.NamesWithPrefix("scale"); len(names) >= 3 {
		if cols, err := cloud.Columns(names[:3]...); err == nil {
			for i := 0; i < n; i++ {
				ls := math.Vec3{X: cols[0][i], Y: cols[1][i], Z: cols[2][i]}
				s.LogScales[i] = ls
				s.Scales[i] = ls.Map(math32.Exp)
			}
		}
	}

	if names := cloud.Header.NamesWithPrefix("rot"); len(names) >= 4 {
		if cols, err := cloud.Columns(names[:4]...); err == nil {
			for i := 0; i < n; i++ {
				q := math.QuatFromWXYZ(cols[0][i], cols[1][i], cols[2][i], cols[3][i])
				if opts.RenormalizeRotations {
					q = q.Normalize()
				}
				s.Rotations[i] = q
			}
		}
	}

	switch {
	case cloud.Has("f_dc_0") && cloud.Has("f_dc_1") && cloud.Has("f_dc_2"):
		cols, _ := cloud.Columns("f_dc_0", "f_dc_1", "f_dc_2")
		for i := 0; i < n; i++ {
			dc := math.Vec3{X: cols[0][i], Y: cols[1][i], Z: cols[2][i]}
			s.DC[i] = dc
			s.Colors[i] = DCToColor(dc)
		}
	case cloud.Has("red") && cloud.Has("green") && cloud.Has("blue"):
		cols, _ := cloud.Columns("red", "green", "blue")
		for i := 0; i < n; i++ {
			c := math.Color{R: cols[0][i] / 255, G: cols[1][i] / 255, B: cols[2][i] / 255}.Clamp()
			s.Colors[i] = c
			s.DC[i] = ColorToDC(c)
		}
	}

	return s, nil
}

// ReadPLY parses and decodes a PLY file. Malformed input is reported as *FormatError.
func ReadPLY(path string, opts DecodeOptions) (*Set, error) {
	cloud, err := ply.ReadFile(path)
	if err != nil {
		if isPLYFormatErr(err) {
			return nil, &FormatError{Source: path, Err: err}
		}
		return nil, err
	}
	s, err := FromPLY(cloud, opts)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return s, nil
}
