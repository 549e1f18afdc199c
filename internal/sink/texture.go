package sink

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/gsplat-palette/internal/importer"
	"github.com/Faultbox/gsplat-palette/internal/logger"
)

// PNGTexture writes the palette texture as <Dir>/<texture name>.png.
type PNGTexture struct {
	Dir string
	Log *zap.Logger

	files written
	last  string
}

// NewPNGTexture creates a PNG texture sink writing into dir.
func NewPNGTexture(dir string, log *zap.Logger) *PNGTexture {
	return &PNGTexture{Dir: dir, Log: logger.OrNop(log)}
}

// Path returns the target of the last successful Accept. The file
// exists once the import is committed.
func (p *PNGTexture) Path() string {
	return p.last
}

// Accept encodes the palette image.
func (p *PNGTexture) Accept(ctx context.Context, res *importer.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(p.Dir, res.Texture.Name+".png")

	f, err := p.files.create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, res.Palette.Image()); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	p.last = path
	logger.OrNop(p.Log).Debug("texture staged", zap.String("path", path), zap.Int("size", res.Texture.Width))
	return nil
}

// Commit moves the staged texture into place.
func (p *PNGTexture) Commit() {
	if err := p.files.commit(); err != nil {
		logger.OrNop(p.Log).Error("texture commit", zap.Error(err))
		return
	}
	logger.OrNop(p.Log).Info("texture written", zap.String("path", p.last))
}

// Abort discards the staged texture. A texture committed by an earlier
// import is kept.
func (p *PNGTexture) Abort(label string, cause error) {
	if err := p.files.rollback(); err != nil {
		logger.OrNop(p.Log).Warn("texture rollback", zap.String("label", label), zap.Error(err))
	}
}
