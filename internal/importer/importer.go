// Package importer runs the splat import pipelines: decode, orientation
// normalisation, palette baking and delivery to host sinks.
package importer

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/gsplat-palette/internal/config"
	"github.com/Faultbox/gsplat-palette/internal/logger"
	"github.com/Faultbox/gsplat-palette/pkg/math"
	"github.com/Faultbox/gsplat-palette/pkg/palette"
	"github.com/Faultbox/gsplat-palette/pkg/sogs"
	"github.com/Faultbox/gsplat-palette/pkg/splat"
)

// Targets are host object selectors. They are passed through unchanged.
type Targets struct {
	Brush    string
	Material string
	Mesh     string
}

// Options control a pipeline run.
type Options struct {
	Bake                 palette.Options
	ZIsMinimum           bool
	YUpToZUp             bool
	RenormalizeRotations bool
	Targets              Targets
}

// OptionsFromConfig maps loaded configuration onto pipeline options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Bake: palette.Options{
			Size:      cfg.Bake.PaletteSize,
			GridLevel: cfg.Bake.GridFallbackLevel,
			SRGB:      cfg.Bake.SourceIsLinear,
		},
		ZIsMinimum:           cfg.Orientation.ZIsMinimum,
		YUpToZUp:             cfg.Orientation.YUpToZUp,
		RenormalizeRotations: cfg.Orientation.RenormalizePLYRotations,
		Targets: Targets{
			Brush:    cfg.Targets.Brush,
			Material: cfg.Targets.Material,
			Mesh:     cfg.Targets.Mesh,
		},
	}
}

// Attributes are the per-point arrays handed to a host, indexed like the
// source splats.
type Attributes struct {
	Scale      []math.Vec3
	LogScale   []math.Vec3
	RotEuler   []math.Vec3 // XYZ Euler angles in radians
	QuatXYZ    []math.Vec3
	QuatW      []float32
	Opacity    []float32
	LogOpacity []float32
	PaletteUV  []math.Vec2
}

// Texture is the baked palette pixel buffer.
type Texture struct {
	Name          string
	Width, Height int
	Pixels        []float32 // RGBA, row-major
}

// Result is everything a sink receives for one import.
type Result struct {
	Name              string // object name derived from the source
	Positions         []math.Vec3
	Attributes        Attributes
	Palette           *palette.Palette
	Texture           Texture
	MaterialName      string
	InstancerName     string
	ContainerRotation math.Quat
	Targets           Targets
	Reoriented        int // splats whose flat axis was moved to Z
	Set               *splat.Set
}

// Len returns the number of points.
func (r *Result) Len() int {
	return len(r.Positions)
}

// Host object names for an imported object.
func TextureName(object string) string   { return object + "_Palette_Lut" }
func MaterialName(object string) string  { return "GSmat_" + object }
func InstancerName(object string) string { return "GS_Instancer_" + object }

// Sink receives import results. Abort is called with a failure label when
// an import does not complete; sinks must roll back or visibly mark
// anything they created.
type Sink interface {
	Accept(ctx context.Context, res *Result) error
	Abort(label string, cause error)
}

// Committer is implemented by sinks that hold what they created as
// pending until every sink has accepted the result.
type Committer interface {
	Commit()
}

// Importer runs pipelines and delivers results to its sinks.
type Importer struct {
	opts    Options
	log     *zap.Logger
	sinks   []Sink
	fetcher *sogs.Fetcher
}

// New creates an Importer. A nil logger disables logging.
func New(opts Options, log *zap.Logger, sinks ...Sink) *Importer {
	return &Importer{opts: opts, log: logger.OrNop(log), sinks: sinks}
}

// WithFetcher sets the fetcher used by Rip.
func (im *Importer) WithFetcher(f *sogs.Fetcher) *Importer {
	im.fetcher = f
	return im
}

// Options returns the pipeline options.
func (im *Importer) Options() Options {
	return im.opts
}

// ObjectName derives an object name from a file path: the base name
// without .ply or .ply.zst.
func ObjectName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".zst")
	return strings.TrimSuffix(name, filepath.Ext(name))
}
