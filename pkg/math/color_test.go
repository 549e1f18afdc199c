package math

import (
	"math"
	"testing"
)

func TestLinearToSRGB(t *testing.T) {
	tests := []struct {
		in, want float32
	}{
		{0, 0},
		{0.0031308, 0.0031308 * 12.92},
		{1, 1},
		{2, 1},
		{-1, 0},
		{0.5, float32(1.055*math.Pow(0.5, 1/2.4) - 0.055)},
	}

	for _, tt := range tests {
		if got := LinearToSRGB(tt.in); !approx(got, tt.want, 1e-6) {
			t.Errorf("LinearToSRGB(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestColorClamp(t *testing.T) {
	nan := float32(math.NaN())
	got := Color{-0.5, 1.5, nan}.Clamp()
	if got != (Color{0, 1, 0}) {
		t.Errorf("Clamp = %+v", got)
	}
}
