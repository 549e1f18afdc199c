package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/gsplat-palette/internal/config"
	"github.com/Faultbox/gsplat-palette/pkg/math"
	"github.com/Faultbox/gsplat-palette/pkg/splat"
)

// isolate keeps the Before hook from picking up a real config file.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)
	return dir
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	return newApp().Run(append([]string{"splattool"}, args...))
}

func TestConfigSaveWithOverrides(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "out.yaml")

	require.NoError(t, run(t, "--palette-size", "512", "--no-z-min", "config", "save", path))

	cfg, err := config.Load(config.Overrides{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.Bake.PaletteSize)
	assert.False(t, cfg.Orientation.ZIsMinimum)
	assert.True(t, cfg.Orientation.YUpToZUp)
}

func TestConfigShow(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.Run([]string{"splattool", "--grid-level", "20", "--linear", "config", "show"}))

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &cfg))
	assert.Equal(t, 20, cfg.Bake.GridFallbackLevel)
	assert.True(t, cfg.Bake.SourceIsLinear)
	assert.Equal(t, 256, cfg.Bake.PaletteSize)
}

func TestInvalidOverrideRejected(t *testing.T) {
	isolate(t)
	err := run(t, "--palette-size", "0", "info", "missing.ply")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestBakeWritesOutputs(t *testing.T) {
	dir := isolate(t)

	s := splat.NewSet(4)
	for i := range s.Colors {
		s.Colors[i] = math.Color{R: float32(i) / 4, G: 0.5, B: 0.25}
		s.DC[i] = splat.ColorToDC(s.Colors[i])
	}
	in := filepath.Join(dir, "cloud.ply")
	require.NoError(t, splat.WritePLYFile(in, s))

	out := filepath.Join(dir, "out")
	require.NoError(t, run(t, "bake", "--out", out, "--glb", in))

	for _, name := range []string{"cloud_Palette_Lut.png", "cloud.glb"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
}

func TestBakeMissingInput(t *testing.T) {
	dir := isolate(t)
	err := run(t, "bake", "--out", dir, filepath.Join(dir, "nope.ply"))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, ".png", filepath.Ext(e.Name()))
	}
}

func TestInfo(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "one.ply")
	require.NoError(t, splat.WritePLYFile(in, splat.NewSet(1)))
	assert.NoError(t, run(t, "info", in))
}
