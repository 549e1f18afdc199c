package importer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/gsplat-palette/pkg/math"
	"github.com/Faultbox/gsplat-palette/pkg/palette"
	"github.com/Faultbox/gsplat-palette/pkg/sogs"
	"github.com/Faultbox/gsplat-palette/pkg/splat"
)

// Loader produces the splats of one import.
type Loader func(ctx context.Context) (*splat.Set, error)

// Run executes the pipeline for the object name using load as its
// source. Any error or panic is returned as *Failure and every sink is
// aborted with FailedLabel.
func (im *Importer) Run(ctx context.Context, name string, load Loader) (res *Result, err error) {
	stage := StageDecode
	log := im.log.With(zap.String("object", name))

	defer func() {
		if r := recover(); r != nil {
			err = &Failure{Stage: stage, Source: name, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			res = nil
			log.Error("import failed", zap.String("stage", string(stage)), zap.Error(err))
			for _, s := range im.sinks {
				s.Abort(FailedLabel, err)
			}
		}
	}()

	fail := func(e error) error {
		if f, ok := AsFailure(e); ok {
			return f
		}
		return &Failure{Stage: stage, Source: name, Err: e}
	}

	start := time.Now()
	set, err := load(ctx)
	if err != nil {
		return nil, fail(err)
	}
	log.Info("decoded", zap.Int("points", set.Len()), zap.Duration("elapsed", time.Since(start)))

	stage = StageNormalize
	if err := ctx.Err(); err != nil {
		return nil, fail(err)
	}
	res = &Result{
		Name:              name,
		MaterialName:      MaterialName(name),
		InstancerName:     InstancerName(name),
		ContainerRotation: splat.ContainerRotation(im.opts.YUpToZUp),
		Targets:           im.opts.Targets,
		Set:               set,
	}
	if im.opts.ZIsMinimum {
		res.Reoriented = splat.ReorientZMinimum(set)
		log.Debug("normalized", zap.Int("reoriented", res.Reoriented))
	}

	stage = StageBake
	if err := ctx.Err(); err != nil {
		return nil, fail(err)
	}
	start = time.Now()
	pal, err := palette.Bake(set.Colors, im.opts.Bake)
	if err != nil {
		return nil, fail(err)
	}
	res.Palette = pal
	res.Positions = set.Positions
	res.Attributes = buildAttributes(set, pal)
	res.Texture = Texture{
		Name:   TextureName(name),
		Width:  pal.Size,
		Height: pal.Size,
		Pixels: pal.Pixels(),
	}
	log.Info("baked",
		zap.Stringer("mode", pal.Mode),
		zap.Int("distinct", pal.Distinct),
		zap.Int("colors", len(pal.Colors)),
		zap.Duration("elapsed", time.Since(start)),
	)

	stage = StageSink
	for _, s := range im.sinks {
		if err := s.Accept(ctx, res); err != nil {
			return nil, fail(err)
		}
	}
	for _, s := range im.sinks {
		if c, ok := s.(Committer); ok {
			c.Commit()
		}
	}
	log.Info("imported", zap.Int("points", res.Len()), zap.Int("sinks", len(im.sinks)))
	return res, nil
}

func buildAttributes(set *splat.Set, pal *palette.Palette) Attributes {
	n := set.Len()
	a := Attributes{
		Scale:      set.Scales,
		LogScale:   set.LogScales,
		RotEuler:   set.Eulers(),
		QuatXYZ:    make([]math.Vec3, n),
		QuatW:      make([]float32, n),
		Opacity:    set.Opacities,
		LogOpacity: set.Logits,
		PaletteUV:  pal.UVs(),
	}
	for i, q := range set.Rotations {
		a.QuatXYZ[i] = math.Vec3{X: q.X, Y: q.Y, Z: q.Z}
		a.QuatW[i] = q.W
	}
	return a
}

// ImportPLY imports a raw or canonical PLY file (optionally .ply.zst).
func (im *Importer) ImportPLY(ctx context.Context, path string) (*Result, error) {
	return im.Run(ctx, ObjectName(path), func(context.Context) (*splat.Set, error) {
		return splat.ReadPLY(path, splat.DecodeOptions{RenormalizeRotations: im.opts.RenormalizeRotations})
	})
}

// ImportCompressedDir imports a compressed asset already on disk.
func (im *Importer) ImportCompressedDir(ctx context.Context, name, dir string) (*Result, error) {
	return im.Run(ctx, name, func(context.Context) (*splat.Set, error) {
		src, err := sogs.LoadDir(dir)
		if err != nil {
			return nil, err
		}
		return sogs.Decode(src)
	})
}

// ConvertCompressedDir decodes a local compressed asset and writes it as
// canonical PLY to out. No baking or sinks are involved.
func (im *Importer) ConvertCompressedDir(dir, out string) (*splat.Set, error) {
	src, err := sogs.LoadDir(dir)
	if err != nil {
		return nil, &Failure{Stage: StageDecode, Source: dir, Err: err}
	}
	set, err := sogs.Decode(src)
	if err != nil {
		return nil, &Failure{Stage: StageDecode, Source: dir, Err: err}
	}
	if err := splat.WritePLYFile(out, set); err != nil {
		return nil, &Failure{Stage: StageSink, Source: dir, Err: err}
	}
	im.log.Info("converted", zap.String("dir", dir), zap.String("out", out), zap.Int("points", set.Len()))
	return set, nil
}

// RipOutcome is the result of Rip.
type RipOutcome struct {
	Rip    *sogs.RipResult
	Import *Result // nil unless baking was requested
}

// Rip downloads a compressed model by id into dir and writes its
// canonical PLY. With bake set, the decoded splats also run through the
// pipeline and are delivered to the sinks.
func (im *Importer) Rip(ctx context.Context, modelID, dir string, compress, bake bool) (*RipOutcome, error) {
	f := im.fetcher
	if f == nil {
		f = sogs.NewFetcher("")
	}
	log := im.log.With(zap.String("model", modelID))

	start := time.Now()
	rip, err := f.Rip(ctx, modelID, dir, compress)
	if err != nil {
		fail := &Failure{Stage: StageFetch, Source: modelID, Err: err}
		if splat.IsFormatError(err) {
			fail.Stage = StageDecode
		}
		log.Error("rip failed", zap.Error(err))
		if bake {
			for _, s := range im.sinks {
				s.Abort(FailedLabel, fail)
			}
		}
		return nil, fail
	}
	log.Info("ripped",
		zap.String("base", rip.Manifest.BaseURL),
		zap.Int("points", rip.Set.Len()),
		zap.Strings("fetched", rip.Manifest.Fetched),
		zap.Bool("preview", rip.Manifest.Preview),
		zap.String("ply", rip.PLYPath),
		zap.Duration("elapsed", time.Since(start)),
	)

	out := &RipOutcome{Rip: rip}
	if bake {
		res, err := im.Run(ctx, modelID, func(context.Context) (*splat.Set, error) {
			return rip.Set, nil
		})
		if err != nil {
			return out, err
		}
		out.Import = res
	}
	return out, nil
}
