package sink

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/gsplat-palette/internal/importer"
	"github.com/Faultbox/gsplat-palette/internal/logger"
	"github.com/Faultbox/gsplat-palette/pkg/math"
)

// Custom point attributes written next to POSITION and TEXCOORD_0.
const (
	AttrScale      = "_SCALE"
	AttrRotation   = "_ROTATION"
	AttrOpacity    = "_OPACITY"
	AttrLogOpacity = "_LOG_OPACITY"
)

// GLTF exports each result as <Dir>/<object>.glb: one point primitive
// carrying the splat attributes, textured with the nearest-filtered palette.
type GLTF struct {
	Dir string
	Log *zap.Logger

	files written
	last  string
}

// NewGLTF creates a glTF sink writing into dir.
func NewGLTF(dir string, log *zap.Logger) *GLTF {
	return &GLTF{Dir: dir, Log: logger.OrNop(log)}
}

// Path returns the target of the last successful Accept. The file
// exists once the import is committed.
func (g *GLTF) Path() string {
	return g.last
}

// Accept builds and saves the binary glTF document.
func (g *GLTF) Accept(ctx context.Context, res *importer.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := BuildDocument(res)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(g.Dir, res.Name+".glb")
	f, err := g.files.create(path)
	if err != nil {
		return err
	}
	enc := gltf.NewEncoder(f)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		f.Close()
		return fmt.Errorf("saving %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	g.last = path
	logger.OrNop(g.Log).Debug("glb staged", zap.String("path", path), zap.Int("points", res.Len()))
	return nil
}

// Commit moves the staged document into place.
func (g *GLTF) Commit() {
	if err := g.files.commit(); err != nil {
		logger.OrNop(g.Log).Error("glb commit", zap.Error(err))
		return
	}
	logger.OrNop(g.Log).Info("glb written", zap.String("path", g.last))
}

// Abort discards the staged document. A document committed by an
// earlier import is kept.
func (g *GLTF) Abort(label string, cause error) {
	if err := g.files.rollback(); err != nil {
		logger.OrNop(g.Log).Warn("glb rollback", zap.String("label", label), zap.Error(err))
	}
}

// BuildDocument converts a result into a glTF document.
func BuildDocument(res *importer.Result) (*gltf.Document, error) {
	n := res.Len()
	attrs := res.Attributes

	positions := make([][3]float32, n)
	scales := make([][3]float32, n)
	rotations := make([][4]float32, n)
	uvs := make([][2]float32, n)
	for i := 0; i < n; i++ {
		positions[i] = res.Positions[i].Array()
		scales[i] = attrs.Scale[i].Array()
		q := attrs.QuatXYZ[i]
		rotations[i] = [4]float32{q.X, q.Y, q.Z, attrs.QuatW[i]}
		uvs[i] = attrs.PaletteUV[i].Array()
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "gsplat-palette"

	posAccessor := modeler.WritePosition(doc, positions)
	uvAccessor := modeler.WriteTextureCoord(doc, uvs)
	scaleAccessor := modeler.WriteAccessor(doc, gltf.TargetArrayBuffer, scales)
	rotAccessor := modeler.WriteAccessor(doc, gltf.TargetArrayBuffer, rotations)
	opAccessor := modeler.WriteAccessor(doc, gltf.TargetArrayBuffer, attrs.Opacity)
	logOpAccessor := modeler.WriteAccessor(doc, gltf.TargetArrayBuffer, attrs.LogOpacity)

	var buf bytes.Buffer
	if err := png.Encode(&buf, res.Palette.Image()); err != nil {
		return nil, fmt.Errorf("encoding palette: %w", err)
	}
	img, err := modeler.WriteImage(doc, res.Texture.Name, "image/png", &buf)
	if err != nil {
		return nil, fmt.Errorf("embedding palette: %w", err)
	}
	doc.Samplers = []*gltf.Sampler{{
		MagFilter: gltf.MagNearest,
		MinFilter: gltf.MinNearest,
		WrapS:     gltf.WrapClampToEdge,
		WrapT:     gltf.WrapClampToEdge,
	}}
	doc.Textures = []*gltf.Texture{{
		Name:    res.Texture.Name,
		Sampler: gltf.Index(0),
		Source:  gltf.Index(uint32(img)),
	}}

	doc.Materials = []*gltf.Material{{
		Name: res.MaterialName,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor:  &[4]float32{1, 1, 1, 1},
			BaseColorTexture: &gltf.TextureInfo{Index: 0},
			MetallicFactor:   gltf.Float(0),
			RoughnessFactor:  gltf.Float(1),
		},
		AlphaMode: gltf.AlphaBlend,
	}}

	prim := &gltf.Primitive{
		Mode: gltf.PrimitivePoints,
		Attributes: map[string]uint32{
			gltf.POSITION:   uint32(posAccessor),
			gltf.TEXCOORD_0: uint32(uvAccessor),
			AttrScale:       uint32(scaleAccessor),
			AttrRotation:    uint32(rotAccessor),
			AttrOpacity:     uint32(opAccessor),
			AttrLogOpacity:  uint32(logOpAccessor),
		},
		Material: gltf.Index(0),
	}
	doc.Meshes = []*gltf.Mesh{{Name: res.InstancerName, Primitives: []*gltf.Primitive{prim}}}

	node := &gltf.Node{
		Name: res.Name,
		Mesh: gltf.Index(0),
		Extras: map[string]any{
			"palette_mode":     res.Palette.Mode.String(),
			"palette_size":     res.Palette.Size,
			"palette_colors":   len(res.Palette.Colors),
			"target_brush":     res.Targets.Brush,
			"target_material":  res.Targets.Material,
			"target_mesh":      res.Targets.Mesh,
			"reoriented_count": res.Reoriented,
		},
	}
	setRotation(&node.Rotation, res.ContainerRotation)
	doc.Nodes = []*gltf.Node{node}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(0))
	return doc, nil
}

// setRotation stores q in glTF (x, y, z, w) order.
func setRotation[T float32 | float64](dst *[4]T, q math.Quat) {
	dst[0], dst[1], dst[2], dst[3] = T(q.X), T(q.Y), T(q.Z), T(q.W)
}
