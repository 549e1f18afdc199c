// Package assets discovers brush textures on disk.
package assets

import (
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/tiff"
)

// Brush directory layout.
const (
	AlphaDir  = "tex_alpha"
	NormalDir = "tex_normal"
)

// imageExtensions are the accepted texture extensions.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
}

// sniffLen is the header size filetype inspects.
const sniffLen = 262

// AssetDescriptor describes one texture file.
type AssetDescriptor struct {
	Name      string // file name without extension
	Path      string
	Kind      string // detected MIME type, e.g. image/png
	Width     int
	Height    int
	NormalMap string // matching normal map path, if any
}

// hidden reports names the listing skips.
func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// ListAvailableAssets returns the image files in dir sorted by file name.
// Names starting with "." or "_" are skipped, and files whose content is
// not an image are ignored even if the extension matches. A missing dir
// yields an empty list.
func ListAvailableAssets(dir string) ([]AssetDescriptor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var out []AssetDescriptor
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || hidden(name) {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if !imageExtensions[ext] {
			continue
		}

		path := filepath.Join(dir, name)
		desc, ok, err := describe(path)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		desc.Name = strings.TrimSuffix(name, filepath.Ext(name))
		out = append(out, desc)
	}
	return out, nil
}

// describe sniffs path and reads its dimensions. ok is false for non-images.
func describe(path string) (AssetDescriptor, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return AssetDescriptor{}, false, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return AssetDescriptor{}, false, err
	}
	kind, err := filetype.Match(head[:n])
	if err != nil || kind.MIME.Type != "image" {
		return AssetDescriptor{}, false, nil
	}

	desc := AssetDescriptor{Path: path, Kind: kind.MIME.Value}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return AssetDescriptor{}, false, err
	}
	if cfg, _, err := image.DecodeConfig(f); err == nil {
		desc.Width, desc.Height = cfg.Width, cfg.Height
	}
	return desc, true, nil
}

// ListBrushes lists alpha textures under root/tex_alpha and pairs each
// with the root/tex_normal image sharing its base name.
func ListBrushes(root string) ([]AssetDescriptor, error) {
	brushes, err := ListAvailableAssets(filepath.Join(root, AlphaDir))
	if err != nil {
		return nil, err
	}
	normals, err := ListAvailableAssets(filepath.Join(root, NormalDir))
	if err != nil {
		return nil, err
	}

	byName := make(map[string]string, len(normals))
	for _, n := range normals {
		if _, dup := byName[n.Name]; !dup {
			byName[n.Name] = n.Path
		}
	}
	for i := range brushes {
		brushes[i].NormalMap = byName[brushes[i].Name]
	}
	return brushes, nil
}
