package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "splattool.yaml"

// Overrides carries command-line settings. Nil fields leave the loaded
// value untouched.
type Overrides struct {
	ConfigPath  string
	Debug       bool
	PaletteSize *int
	GridLevel   *int
	Linear      *bool
	ZIsMinimum  *bool
	YUpToZUp    *bool
	OutputDir   *string
}

// Load loads configuration with priority: defaults < file < overrides.
func Load(o Overrides) (*Config, error) {
	cfg := Default()

	configPath := o.ConfigPath
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	o.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o Overrides) apply(cfg *Config) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.PaletteSize != nil {
		cfg.Bake.PaletteSize = *o.PaletteSize
	}
	if o.GridLevel != nil {
		cfg.Bake.GridFallbackLevel = *o.GridLevel
	}
	if o.Linear != nil {
		cfg.Bake.SourceIsLinear = *o.Linear
	}
	if o.ZIsMinimum != nil {
		cfg.Orientation.ZIsMinimum = *o.ZIsMinimum
	}
	if o.YUpToZUp != nil {
		cfg.Orientation.YUpToZUp = *o.YUpToZUp
	}
	if o.OutputDir != nil {
		cfg.Output.Dir = *o.OutputDir
	}
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		filepath.Join(".", FileName),
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "GsplatPalette")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "GsplatPalette")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "gsplat-palette")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "gsplat-palette")
	}
}

// loadFromFile merges a YAML file over cfg. Keys absent from the file keep their value.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
