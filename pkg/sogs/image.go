package sogs

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // channel images may be re-encoded by tools
	_ "image/png"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	_ "golang.org/x/image/webp" // production channel format
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/gsplat-palette/pkg/splat"
)

// Channel image and metadata names.
const (
	MetaFile   = "meta.json"
	MeansUpper = "means_u"
	MeansLower = "means_l"
	ScalesName = "scales"
	QuatsName  = "quats"
	SH0Name    = "sh0"
)

// ChannelNames lists the channel images in load order.
var ChannelNames = []string{MeansUpper, MeansLower, ScalesName, QuatsName, SH0Name}

// Channel is a decoded channel image as raw non-premultiplied RGBA bytes,
// one pixel per point in row-major order.
type Channel struct {
	Name          string
	Width, Height int
	Pix           []byte
}

// Len returns the number of pixels.
func (c *Channel) Len() int {
	return c.Width * c.Height
}

// At returns the RGBA bytes of pixel i.
func (c *Channel) At(i int) (r, g, b, a uint8) {
	p := c.Pix[i*4 : i*4+4 : i*4+4]
	return p[0], p[1], p[2], p[3]
}

// Source is a loaded compressed asset: metadata plus channel images,
// already truncated to Count points.
type Source struct {
	Meta     *Meta
	Count    int
	Channels map[string]*Channel
}

// Channel returns the named channel image.
func (s *Source) Channel(name string) *Channel {
	return s.Channels[name]
}

// ChannelFromImage converts a decoded image into raw RGBA channel bytes.
// Alpha is kept unassociated so it can carry codes rather than coverage.
func ChannelFromImage(name string, img image.Image) *Channel {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	ch := &Channel{Name: name, Width: w, Height: h, Pix: make([]byte, w*h*4)}

	switch m := img.(type) {
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			off := m.PixOffset(b.Min.X, b.Min.Y+y)
			copy(ch.Pix[y*w*4:(y+1)*w*4], m.Pix[off:off+w*4])
		}
	case *image.NYCbCrA:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				px, py := b.Min.X+x, b.Min.Y+y
				yi, ci := m.YOffset(px, py), m.COffset(px, py)
				r, g, bl := color.YCbCrToRGB(m.Y[yi], m.Cb[ci], m.Cr[ci])
				i := (y*w + x) * 4
				ch.Pix[i], ch.Pix[i+1], ch.Pix[i+2], ch.Pix[i+3] = r, g, bl, m.A[m.AOffset(px, py)]
			}
		}
	case *image.YCbCr:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				px, py := b.Min.X+x, b.Min.Y+y
				yi, ci := m.YOffset(px, py), m.COffset(px, py)
				r, g, bl := color.YCbCrToRGB(m.Y[yi], m.Cb[ci], m.Cr[ci])
				i := (y*w + x) * 4
				ch.Pix[i], ch.Pix[i+1], ch.Pix[i+2], ch.Pix[i+3] = r, g, bl, 0xff
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				i := (y*w + x) * 4
				ch.Pix[i], ch.Pix[i+1], ch.Pix[i+2], ch.Pix[i+3] = c.R, c.G, c.B, c.A
			}
		}
	}
	return ch
}

// findChannel returns the file holding the named channel, preferring .webp.
func findChannel(fsys fs.FS, dir, name string) (string, error) {
	matches, err := fs.Glob(fsys, path.Join(dir, name+".*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("channel image %s: %w", name, fs.ErrNotExist)
	}
	slices.SortFunc(matches, func(a, b string) int {
		aw, bw := strings.HasSuffix(a, ".webp"), strings.HasSuffix(b, ".webp")
		switch {
		case aw && !bw:
			return -1
		case bw && !aw:
			return 1
		}
		return strings.Compare(a, b)
	})
	return matches[0], nil
}

func decodeChannel(fsys fs.FS, file, name string) (*Channel, error) {
	f, err := fsys.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &splat.FormatError{Source: file, Err: err}
	}
	return ChannelFromImage(name, img), nil
}

// LoadFS reads meta.json and the channel images from dir within fsys.
// Images are decoded concurrently.
func LoadFS(fsys fs.FS, dir string) (*Source, error) {
	data, err := fs.ReadFile(fsys, path.Join(dir, MetaFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", MetaFile, err)
	}
	meta, err := ParseMeta(data)
	if err != nil {
		return nil, err
	}

	channels := make([]*Channel, len(ChannelNames))
	var g errgroup.Group
	for i, name := range ChannelNames {
		g.Go(func() error {
			file, err := findChannel(fsys, dir, name)
			if err != nil {
				return err
			}
			ch, err := decodeChannel(fsys, file, name)
			if err != nil {
				return err
			}
			channels[i] = ch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewSource(meta, channels...)
}

// LoadDir reads a compressed asset from a local directory.
func LoadDir(dir string) (*Source, error) {
	return LoadFS(os.DirFS(dir), ".")
}

// NewSource resolves the point count and truncates every channel to it.
// The count comes from meta, or from the means_u image area when absent.
func NewSource(meta *Meta, channels ...*Channel) (*Source, error) {
	src := &Source{Meta: meta, Channels: make(map[string]*Channel, len(channels))}
	for _, ch := range channels {
		src.Channels[ch.Name] = ch
	}
	for _, name := range ChannelNames {
		if src.Channels[name] == nil {
			return nil, &splat.FormatError{Source: name, Err: fs.ErrNotExist}
		}
	}

	src.Count = meta.Count
	if src.Count == 0 {
		src.Count = src.Channels[MeansUpper].Len()
	}
	for _, name := range ChannelNames {
		ch := src.Channels[name]
		if ch.Len() < src.Count {
			return nil, &splat.FormatError{
				Source: name,
				Err:    fmt.Errorf("%w: %d pixels, count %d", ErrShortImage, ch.Len(), src.Count),
			}
		}
		ch.Pix = ch.Pix[:src.Count*4]
	}
	return src, nil
}
