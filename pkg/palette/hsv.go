package palette

import stdmath "math"

// hsv is a sort key. Values are computed in float64 so palettes built
// from the same 8-bit inputs order identically across platforms.
type hsv struct {
	H, S, V float64
}

// rgbToHSV converts RGB in [0,1] to hue, saturation, value with hue in [0,1).
// Channel precedence for the hue sector is red, then green, then blue.
func rgbToHSV(r, g, b float64) hsv {
	maxc := stdmath.Max(r, stdmath.Max(g, b))
	minc := stdmath.Min(r, stdmath.Min(g, b))
	v := maxc
	if minc == maxc {
		return hsv{0, 0, v}
	}

	rangec := maxc - minc
	s := rangec / maxc
	rc := (maxc - r) / rangec
	gc := (maxc - g) / rangec
	bc := (maxc - b) / rangec

	var h float64
	switch {
	case r == maxc:
		h = bc - gc
	case g == maxc:
		h = 2.0 + rc - bc
	default:
		h = 4.0 + gc - rc
	}
	return hsv{floorMod1(h / 6.0), s, v}
}

// floorMod1 returns x mod 1 with the sign of the divisor.
func floorMod1(x float64) float64 {
	m := stdmath.Mod(x, 1.0)
	if m < 0 {
		m += 1.0
	}
	if m == 0 {
		return 0
	}
	return m
}

func (a hsv) compare(b hsv) int {
	switch {
	case a.H < b.H:
		return -1
	case a.H > b.H:
		return 1
	case a.S < b.S:
		return -1
	case a.S > b.S:
		return 1
	case a.V < b.V:
		return -1
	case a.V > b.V:
		return 1
	}
	return 0
}
