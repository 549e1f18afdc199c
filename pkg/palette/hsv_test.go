package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		want    hsv
	}{
		{"black", 0, 0, 0, hsv{0, 0, 0}},
		{"gray", 0.5, 0.5, 0.5, hsv{0, 0, 0.5}},
		{"red", 1, 0, 0, hsv{0, 1, 1}},
		{"green", 0, 1, 0, hsv{1.0 / 3.0, 1, 1}},
		{"blue", 0, 0, 1, hsv{2.0 / 3.0, 1, 1}},
		{"magenta", 1, 0, 1, hsv{5.0 / 6.0, 1, 1}},
		{"yellow", 1, 1, 0, hsv{1.0 / 6.0, 1, 1}},
		{"dark teal", 0, 0.4, 0.4, hsv{0.5, 1, 0.4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rgbToHSV(tt.r, tt.g, tt.b)
			assert.InDelta(t, tt.want.H, got.H, 1e-12)
			assert.InDelta(t, tt.want.S, got.S, 1e-12)
			assert.InDelta(t, tt.want.V, got.V, 1e-12)
		})
	}
}

func TestHSVCompare(t *testing.T) {
	a := hsv{0.1, 0.5, 0.5}
	assert.Equal(t, 0, a.compare(a))
	assert.Equal(t, -1, a.compare(hsv{0.2, 0, 0}))
	assert.Equal(t, 1, a.compare(hsv{0.1, 0.4, 1}))
	assert.Equal(t, -1, a.compare(hsv{0.1, 0.5, 0.6}))
}

func TestKeySet(t *testing.T) {
	s := newKeySet()
	for _, k := range []uint32{0xffffff, 5, 64, 5, 63, 0} {
		s.add(k)
	}
	s.seal()

	assert.Equal(t, 5, s.count)
	assert.Equal(t, []uint32{0, 5, 63, 64, 0xffffff}, s.keys())
	assert.Equal(t, int32(0), s.rank(0))
	assert.Equal(t, int32(2), s.rank(63))
	assert.Equal(t, int32(3), s.rank(64))
	assert.Equal(t, int32(4), s.rank(0xffffff))
}
