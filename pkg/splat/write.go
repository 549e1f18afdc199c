package splat

import (
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/gsplat-palette/pkg/ply"
)

// CanonicalProperties is the fixed property order of the canonical PLY.
// rot_0..rot_3 carry w, x, y, z.
var CanonicalProperties = []string{
	"x", "y", "z",
	"f_dc_0", "f_dc_1", "f_dc_2",
	"opacity",
	"scale_0", "scale_1", "scale_2",
	"rot_0", "rot_1", "rot_2", "rot_3",
}

// CanonicalHeader returns the canonical header for n splats.
func CanonicalHeader(n int) *ply.Header {
	h := &ply.Header{Format: ply.FormatBinaryLE, Version: "1.0", Count: n}
	for _, name := range CanonicalProperties {
		h.AddProperty(name, ply.Float32)
	}
	return h
}

// WritePLY serialises the encoded fields of s as a canonical binary PLY.
func WritePLY(w io.Writer, s *Set) error {
	n := s.Len()
	stride := len(CanonicalProperties)
	values := make([]float32, 0, n*stride)
	for i := 0; i < n; i++ {
		p, dc, ls, q := s.Positions[i], s.DC[i], s.LogScales[i], s.Rotations[i]
		values = append(values,
			p.X, p.Y, p.Z,
			dc.X, dc.Y, dc.Z,
			s.Logits[i],
			ls.X, ls.Y, ls.Z,
			q.W, q.X, q.Y, q.Z,
		)
	}
	return ply.WriteFloat32(w, CanonicalHeader(n), values)
}

// WritePLYFile writes s to path; a .zst suffix selects zstd framing.
func WritePLYFile(path string, s *Set) error {
	f, err := ply.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WritePLY(f, s); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func isPLYFormatErr(err error) bool {
	return errors.Is(err, ply.ErrMissingEndHeader) ||
		errors.Is(err, ply.ErrTruncatedBody) ||
		errors.Is(err, ply.ErrBadHeader) ||
		errors.Is(err, ply.ErrUnsupportedFormat)
}
