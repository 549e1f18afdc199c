// Package palette bakes per-point colors into a bounded, hue-sorted
// palette texture and maps every point to a palette rank.
//
// Up to Size*Size distinct 8-bit colors are kept exactly (Exact mode).
// Larger inputs fall back to a fixed GridLevel^3 lattice over the RGB
// cube (Grid mode). Both palettes are sorted by hue, then saturation,
// then value, so similar hues sit next to each other in the texture.
package palette

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Faultbox/gsplat-palette/pkg/math"
)

// Defaults matching the 256x256 palette texture.
const (
	DefaultSize      = 256
	DefaultGridLevel = 40

	// gridEpsilon keeps a channel value of exactly 1.0 inside the last cell.
	gridEpsilon = 0.0001
)

var (
	// ErrInvalidOptions is returned for unusable size or grid settings.
	ErrInvalidOptions = errors.New("invalid palette options")
	// ErrEmptyInput is returned when there are no colors to bake.
	ErrEmptyInput = errors.New("no colors to bake")
)

// Mode is the palette construction strategy.
type Mode int

const (
	// Exact keeps every distinct 8-bit color.
	Exact Mode = iota
	// Grid snaps colors to a GridLevel^3 lattice.
	Grid
)

func (m Mode) String() string {
	switch m {
	case Exact:
		return "exact"
	case Grid:
		return "grid"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Options configure Bake. Zero values select the defaults.
type Options struct {
	Size      int // texture side length; capacity is Size*Size
	GridLevel int // lattice levels per channel in Grid mode
	SRGB      bool // gamma-encode texels when materializing pixels
}

func (o Options) withDefaults() Options {
	if o.Size == 0 {
		o.Size = DefaultSize
	}
	if o.GridLevel == 0 {
		o.GridLevel = DefaultGridLevel
	}
	return o
}

// Validate checks that the grid lattice fits the texture.
func (o Options) Validate() error {
	o = o.withDefaults()
	if o.Size < 1 || o.Size > 4096 {
		return fmt.Errorf("%w: size %d out of range [1,4096]", ErrInvalidOptions, o.Size)
	}
	if o.GridLevel < 2 {
		return fmt.Errorf("%w: grid level %d below 2", ErrInvalidOptions, o.GridLevel)
	}
	if o.GridLevel*o.GridLevel*o.GridLevel > o.Size*o.Size {
		return fmt.Errorf("%w: grid level %d needs %d entries, capacity is %d",
			ErrInvalidOptions, o.GridLevel, o.GridLevel*o.GridLevel*o.GridLevel, o.Size*o.Size)
	}
	return nil
}

// Palette is the result of a bake.
type Palette struct {
	Size     int
	Mode     Mode
	Distinct int          // distinct 8-bit colors in the input
	Colors   []math.Color // hue-sorted entries, len <= Size*Size
	Ranks    []int32      // palette index of every input point
	SRGB     bool
}

// Capacity returns the number of texels in the palette texture.
func (p *Palette) Capacity() int {
	return p.Size * p.Size
}

// Lookup returns the palette color assigned to point i.
func (p *Palette) Lookup(i int) math.Color {
	return p.Colors[p.Ranks[i]]
}

// Bake builds a palette for colors. Inputs are clipped to [0,1].
func Bake(colors []math.Color, opts Options) (*Palette, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(colors) == 0 {
		return nil, ErrEmptyInput
	}
	opts = opts.withDefaults()

	keys := make([]uint32, len(colors))
	set := newKeySet()
	for i, c := range colors {
		keys[i] = PackKey(c)
		set.add(keys[i])
	}
	set.seal()

	p := &Palette{Size: opts.Size, Distinct: set.count, SRGB: opts.SRGB}
	if set.count <= opts.Size*opts.Size {
		p.Mode = Exact
		p.bakeExact(keys, set)
	} else {
		p.Mode = Grid
		p.bakeGrid(colors, opts.GridLevel)
	}
	return p, nil
}

// PackKey quantizes c to 8 bits per channel (truncating) and packs it as R<<16|G<<8|B.
func PackKey(c math.Color) uint32 {
	c = c.Clamp()
	r := uint32(c.R * 255)
	g := uint32(c.G * 255)
	b := uint32(c.B * 255)
	return r<<16 | g<<8 | b
}

// UnpackKey returns the 8-bit channels of a packed key.
func UnpackKey(k uint32) (r, g, b uint8) {
	return uint8(k >> 16), uint8(k >> 8), uint8(k)
}

func (p *Palette) bakeExact(keys []uint32, set *keySet) {
	unique := set.keys()
	entries := make([][3]float64, len(unique))
	for i, k := range unique {
		r, g, b := UnpackKey(k)
		entries[i] = [3]float64{float64(r) / 255.0, float64(g) / 255.0, float64(b) / 255.0}
	}

	order, rankOf := hueOrder(entries)
	p.Colors = colorsInOrder(entries, order)

	p.Ranks = make([]int32, len(keys))
	for i, k := range keys {
		p.Ranks[i] = rankOf[set.rank(k)]
	}
}

func (p *Palette) bakeGrid(colors []math.Color, level int) {
	lattice := gridLattice(level)
	order, rankOf := hueOrder(lattice)
	p.Colors = colorsInOrder(lattice, order)

	scale := float32(float64(level) - gridEpsilon)
	p.Ranks = make([]int32, len(colors))
	for i, c := range colors {
		c = c.Clamp()
		ri := gridCell(c.R, scale, level)
		gi := gridCell(c.G, scale, level)
		bi := gridCell(c.B, scale, level)
		p.Ranks[i] = rankOf[(ri*level+gi)*level+bi]
	}
}

// gridLattice enumerates cell colors in (r, g, b) index order, b fastest.
func gridLattice(level int) [][3]float64 {
	out := make([][3]float64, 0, level*level*level)
	den := float64(level - 1)
	for r := 0; r < level; r++ {
		for g := 0; g < level; g++ {
			for b := 0; b < level; b++ {
				out = append(out, [3]float64{float64(r) / den, float64(g) / den, float64(b) / den})
			}
		}
	}
	return out
}

func gridCell(v, scale float32, level int) int {
	i := int(v * scale)
	if i >= level {
		i = level - 1
	}
	return i
}

// hueOrder stable-sorts entries by (hue, saturation, value). order[rank] is the
// entry index and rankOf[entry] is its rank.
func hueOrder(entries [][3]float64) (order []int32, rankOf []int32) {
	keys := make([]hsv, len(entries))
	order = make([]int32, len(entries))
	for i, e := range entries {
		keys[i] = rgbToHSV(e[0], e[1], e[2])
		order[i] = int32(i)
	}

	slices.SortStableFunc(order, func(a, b int32) int {
		return keys[a].compare(keys[b])
	})

	rankOf = make([]int32, len(entries))
	for rank, idx := range order {
		rankOf[idx] = int32(rank)
	}
	return order, rankOf
}

func colorsInOrder(entries [][3]float64, order []int32) []math.Color {
	out := make([]math.Color, len(order))
	for rank, idx := range order {
		e := entries[idx]
		out[rank] = math.Color{R: float32(e[0]), G: float32(e[1]), B: float32(e[2])}
	}
	return out
}
