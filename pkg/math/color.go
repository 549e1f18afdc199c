package math

import "github.com/chewxy/math32"

// Color is a linear or gamma-encoded RGB triple, nominally in [0,1].
type Color struct {
	R, G, B float32
}

// White is opaque white, the fallback splat color.
var White = Color{1, 1, 1}

// Clamp returns c with every channel clipped to [0,1].
func (c Color) Clamp() Color {
	return Color{clamp01(c.R), clamp01(c.G), clamp01(c.B)}
}

// LinearToSRGB gamma-encodes every channel. The result is clamped to [0,1].
func (c Color) LinearToSRGB() Color {
	return Color{LinearToSRGB(c.R), LinearToSRGB(c.G), LinearToSRGB(c.B)}
}

// Array returns the channels as an array.
func (c Color) Array() [3]float32 {
	return [3]float32{c.R, c.G, c.B}
}

// LinearToSRGB applies the sRGB transfer function to a single channel.
func LinearToSRGB(v float32) float32 {
	const a = 0.055
	if v <= 0.0031308 {
		return clamp01(v * 12.92)
	}
	return clamp01((1+a)*math32.Pow(v, 1/2.4) - a)
}

// clamp01 also maps NaN to 0.
func clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
