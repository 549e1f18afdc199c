package palette

import (
	"image"
	"image/color"

	"github.com/Faultbox/gsplat-palette/pkg/math"
)

// TexelUV returns the texel-center coordinate of rank in a size x size texture.
func TexelUV(rank int32, size int) math.Vec2 {
	s := float32(size)
	col := float32(int(rank) % size)
	row := float32(int(rank) / size)
	return math.Vec2{X: (col + 0.5) / s, Y: (row + 0.5) / s}
}

// UV returns the texel-center coordinate of point i's palette entry.
func (p *Palette) UV(i int) math.Vec2 {
	return TexelUV(p.Ranks[i], p.Size)
}

// UVs returns the palette coordinates of every point, in input order.
func (p *Palette) UVs() []math.Vec2 {
	out := make([]math.Vec2, len(p.Ranks))
	for i, r := range p.Ranks {
		out[i] = TexelUV(r, p.Size)
	}
	return out
}

// texel returns the color written to the texture for rank r.
func (p *Palette) texel(r int) math.Color {
	c := p.Colors[r]
	if p.SRGB {
		return c.LinearToSRGB()
	}
	return c.Clamp()
}

// Pixels returns the Size*Size RGBA float buffer, row-major with rank =
// row*Size + col. Unused texels are (0,0,0,1).
func (p *Palette) Pixels() []float32 {
	n := p.Capacity()
	buf := make([]float32, n*4)
	for i := 0; i < n; i++ {
		buf[i*4+3] = 1
	}
	for r := range p.Colors {
		c := p.texel(r)
		buf[r*4] = c.R
		buf[r*4+1] = c.G
		buf[r*4+2] = c.B
	}
	return buf
}

// Image returns the palette as an 8-bit image. Row 0 holds ranks 0..Size-1.
func (p *Palette) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.Size, p.Size))
	for i := 0; i < p.Capacity(); i++ {
		img.Pix[i*4+3] = 0xff
	}
	for r := range p.Colors {
		c := p.texel(r)
		img.SetNRGBA(r%p.Size, r/p.Size, color.NRGBA{
			R: to8(c.R),
			G: to8(c.G),
			B: to8(c.B),
			A: 0xff,
		})
	}
	return img
}

func to8(v float32) uint8 {
	return uint8(v*255 + 0.5)
}
