package sink

import (
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/gsplat-palette/internal/importer"
	"github.com/Faultbox/gsplat-palette/pkg/math"
	"github.com/Faultbox/gsplat-palette/pkg/splat"
)

func testSet() *splat.Set {
	s := splat.NewSet(3)
	for i := range s.Positions {
		s.Positions[i] = math.Vec3{X: float32(i), Y: 1, Z: 2}
	}
	s.Colors[0] = math.Color{R: 1}
	s.Colors[1] = math.Color{G: 1}
	s.Opacities[2] = 0.25
	return s
}

func run(t *testing.T, opts importer.Options, sinks ...importer.Sink) (*importer.Result, error) {
	t.Helper()
	im := importer.New(opts, nil, sinks...)
	return im.Run(context.Background(), "cloud", func(context.Context) (*splat.Set, error) {
		return testSet(), nil
	})
}

func TestMemory(t *testing.T) {
	mem := &Memory{}
	res, err := run(t, importer.Options{}, mem)
	require.NoError(t, err)
	assert.Same(t, res, mem.Last())
	assert.Len(t, mem.Results(), 1)
	assert.Empty(t, mem.Aborts())

	mem.Fail = errors.New("host busy")
	_, err = run(t, importer.Options{}, mem)
	require.Error(t, err)
	require.Len(t, mem.Aborts(), 1)
	assert.Equal(t, importer.FailedLabel, mem.Aborts()[0].Label)
	assert.Len(t, mem.Results(), 1)
}

func TestMemoryDropsResultOfFailedImport(t *testing.T) {
	mem := &Memory{}
	locked := &Memory{Fail: errors.New("mesh locked")}

	_, err := run(t, importer.Options{}, mem, locked)
	require.Error(t, err)
	assert.Nil(t, mem.Last())
	assert.Empty(t, mem.Results())
	require.Len(t, mem.Aborts(), 1)
	assert.Equal(t, importer.FailedLabel, mem.Aborts()[0].Label)

	locked.Fail = nil
	res, err := run(t, importer.Options{}, mem, locked)
	require.NoError(t, err)
	assert.Same(t, res, mem.Last())
	assert.Len(t, mem.Results(), 1)
}

func TestPNGTexture(t *testing.T) {
	dir := t.TempDir()
	tex := NewPNGTexture(dir, nil)
	_, err := run(t, importer.Options{}, tex)
	require.NoError(t, err)

	want := filepath.Join(dir, "cloud_Palette_Lut.png")
	assert.Equal(t, want, tex.Path())

	f, err := os.Open(want)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

func TestRollbackOnLaterFailure(t *testing.T) {
	dir := t.TempDir()
	tex := NewPNGTexture(dir, nil)
	glb := NewGLTF(dir, nil)
	bad := &Memory{Fail: errors.New("host rejected")}

	_, err := run(t, importer.Options{}, tex, glb, bad)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "files from an aborted import must be removed")
}

func TestCommittedFilesSurviveLaterFailure(t *testing.T) {
	dir := t.TempDir()
	tex := NewPNGTexture(dir, nil)
	_, err := run(t, importer.Options{}, tex)
	require.NoError(t, err)

	im := importer.New(importer.Options{}, nil, tex)
	_, err = im.Run(context.Background(), "broken", func(context.Context) (*splat.Set, error) {
		return nil, &splat.FormatError{Source: "broken.ply", Err: errors.New("truncated")}
	})
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(dir, "cloud_Palette_Lut.png"))
	assert.NoError(t, err)
}

func TestFailedReimportKeepsCommittedFiles(t *testing.T) {
	dir := t.TempDir()
	tex := NewPNGTexture(dir, nil)
	glb := NewGLTF(dir, nil)
	_, err := run(t, importer.Options{}, tex, glb)
	require.NoError(t, err)

	before := map[string][]byte{}
	for _, name := range []string{"cloud_Palette_Lut.png", "cloud.glb"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		before[name] = data
	}

	bad := &Memory{Fail: errors.New("host rejected")}
	_, err = run(t, importer.Options{YUpToZUp: true}, tex, glb, bad)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "staged files must be removed")
	for name, want := range before {
		got, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestGLTF(t *testing.T) {
	dir := t.TempDir()
	glb := NewGLTF(dir, nil)
	res, err := run(t, importer.Options{YUpToZUp: true}, glb)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "cloud.glb"), glb.Path())

	doc, err := gltf.Open(glb.Path())
	require.NoError(t, err)

	require.Len(t, doc.Meshes, 1)
	assert.Equal(t, "GS_Instancer_cloud", doc.Meshes[0].Name)
	prim := doc.Meshes[0].Primitives[0]
	assert.Equal(t, gltf.PrimitivePoints, prim.Mode)
	for _, name := range []string{gltf.POSITION, gltf.TEXCOORD_0, AttrScale, AttrRotation, AttrOpacity, AttrLogOpacity} {
		idx, ok := prim.Attributes[name]
		require.True(t, ok, "missing attribute %s", name)
		assert.EqualValues(t, 3, doc.Accessors[idx].Count, name)
	}

	pos, err := modeler.ReadAccessor(doc, doc.Accessors[prim.Attributes[gltf.POSITION]], nil)
	require.NoError(t, err)
	assert.Equal(t, [][3]float32{{0, 1, 2}, {1, 1, 2}, {2, 1, 2}}, pos)

	op, err := modeler.ReadAccessor(doc, doc.Accessors[prim.Attributes[AttrOpacity]], nil)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1, 0.25}, op)

	require.Len(t, doc.Images, 1)
	require.Len(t, doc.Samplers, 1)
	assert.Equal(t, gltf.MagNearest, doc.Samplers[0].MagFilter)
	assert.Equal(t, gltf.MinNearest, doc.Samplers[0].MinFilter)
	assert.Equal(t, "GSmat_cloud", doc.Materials[0].Name)

	q := res.ContainerRotation
	rot := doc.Nodes[0].Rotation
	assert.InDelta(t, q.X, float64(rot[0]), 1e-6)
	assert.InDelta(t, q.W, float64(rot[3]), 1e-6)
	assert.InDelta(t, -0.70710678, float64(rot[0]), 1e-6)
}
