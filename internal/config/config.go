// Package config handles splattool configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Config holds all pipeline settings.
type Config struct {
	Bake        BakeConfig        `yaml:"bake"`
	Orientation OrientationConfig `yaml:"orientation"`
	Targets     TargetsConfig     `yaml:"targets"`
	Download    DownloadConfig    `yaml:"download"`
	Assets      AssetsConfig      `yaml:"assets"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// BakeConfig holds palette baking settings.
type BakeConfig struct {
	PaletteSize       int  `yaml:"palette_size"`        // texture side; capacity is size^2
	GridFallbackLevel int  `yaml:"grid_fallback_level"` // grid mode levels per channel
	SourceIsLinear    bool `yaml:"source_is_linear"`    // gamma-encode palette texels
}

// OrientationConfig holds splat and container orientation settings.
type OrientationConfig struct {
	ZIsMinimum              bool `yaml:"z_is_minimum"`
	YUpToZUp                bool `yaml:"y_up_to_z_up"`
	RenormalizePLYRotations bool `yaml:"renormalize_ply_rotations"`
}

// TargetsConfig names host objects. The pipeline passes them through untouched.
type TargetsConfig struct {
	Brush    string `yaml:"brush"`
	Material string `yaml:"material"`
	Mesh     string `yaml:"mesh"`
}

// DownloadConfig holds compressed-asset fetch settings.
type DownloadConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Versions   []string      `yaml:"versions"`
	Timeout    time.Duration `yaml:"timeout"`
	KeepTemp   bool          `yaml:"keep_temp"`
	ReuseCache bool          `yaml:"reuse_cache"`
}

// AssetsConfig holds brush texture discovery settings.
type AssetsConfig struct {
	BrushDir string        `yaml:"brush_dir"`
	ScanTTL  time.Duration `yaml:"scan_ttl"`
}

// OutputConfig holds output locations.
type OutputConfig struct {
	Dir           string `yaml:"dir"`
	TextureFormat string `yaml:"texture_format"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the stock settings.
func Default() *Config {
	return &Config{
		Bake: BakeConfig{
			PaletteSize:       256,
			GridFallbackLevel: 40,
		},
		Orientation: OrientationConfig{
			ZIsMinimum: true,
			YUpToZUp:   true,
		},
		Download: DownloadConfig{
			BaseURL:    "https://d28zzqy0iyovbz.cloudfront.net",
			Versions:   []string{"v3", "v2", ""},
			Timeout:    10 * time.Second,
			ReuseCache: true,
		},
		Assets: AssetsConfig{
			BrushDir: "brush",
			ScanTTL:  2 * time.Second,
		},
		Output: OutputConfig{
			Dir:           ".",
			TextureFormat: "png",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	size, level := c.Bake.PaletteSize, c.Bake.GridFallbackLevel
	switch {
	case size < 1 || size > 4096:
		return fmt.Errorf("%w: bake.palette_size %d not in [1,4096]", ErrInvalid, size)
	case level < 2:
		return fmt.Errorf("%w: bake.grid_fallback_level %d below 2", ErrInvalid, level)
	case level*level*level > size*size:
		return fmt.Errorf("%w: bake.grid_fallback_level %d exceeds palette capacity %d", ErrInvalid, level, size*size)
	case c.Download.Timeout <= 0:
		return fmt.Errorf("%w: download.timeout must be positive", ErrInvalid)
	case c.Assets.ScanTTL < 0:
		return fmt.Errorf("%w: assets.scan_ttl must not be negative", ErrInvalid)
	}
	switch c.Output.TextureFormat {
	case "png", "":
	default:
		return fmt.Errorf("%w: output.texture_format %q unsupported", ErrInvalid, c.Output.TextureFormat)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("%w: logging.level %q unknown", ErrInvalid, c.Logging.Level)
	}
	return nil
}
