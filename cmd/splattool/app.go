package main

import (
	"github.com/urfave/cli/v2"

	"github.com/Faultbox/gsplat-palette/internal/config"
	"github.com/Faultbox/gsplat-palette/internal/importer"
	"github.com/Faultbox/gsplat-palette/internal/logger"
	"github.com/Faultbox/gsplat-palette/pkg/sogs"
)

// state is shared by the commands after the Before hook ran.
type state struct {
	cfg *config.Config
}

func newApp() *cli.App {
	st := &state{}
	return &cli.App{
		Name:  "splattool",
		Usage: "Gaussian splat import, palette baking and compressed splat ripping",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to config file"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
			&cli.IntFlag{Name: "palette-size", Usage: "palette texture side length"},
			&cli.IntFlag{Name: "grid-level", Usage: "grid fallback levels per channel"},
			&cli.BoolFlag{Name: "linear", Usage: "source colors are linear; gamma-encode the palette"},
			&cli.BoolFlag{Name: "no-z-min", Usage: "keep the stored scale axes"},
			&cli.BoolFlag{Name: "no-y-up", Usage: "skip the Y-up to Z-up container rotation"},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(overridesFrom(c))
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
				return err
			}
			st.cfg = cfg
			return nil
		},
		Commands: []*cli.Command{
			bakeCommand(st),
			ripCommand(st),
			convertCommand(st),
			infoCommand(st),
			assetsCommand(st),
			configCommand(st),
		},
	}
}

func overridesFrom(c *cli.Context) config.Overrides {
	o := config.Overrides{
		ConfigPath: c.String("config"),
		Debug:      c.Bool("debug"),
	}
	if c.IsSet("palette-size") {
		v := c.Int("palette-size")
		o.PaletteSize = &v
	}
	if c.IsSet("grid-level") {
		v := c.Int("grid-level")
		o.GridLevel = &v
	}
	if c.IsSet("linear") {
		v := c.Bool("linear")
		o.Linear = &v
	}
	if c.IsSet("no-z-min") {
		v := !c.Bool("no-z-min")
		o.ZIsMinimum = &v
	}
	if c.IsSet("no-y-up") {
		v := !c.Bool("no-y-up")
		o.YUpToZUp = &v
	}
	return o
}

func (st *state) fetcher() *sogs.Fetcher {
	d := st.cfg.Download
	f := sogs.NewFetcher(d.BaseURL)
	f.Versions = d.Versions
	f.Timeout = d.Timeout
	f.ReuseCache = d.ReuseCache
	f.KeepTemp = d.KeepTemp
	return f
}

func (st *state) importer(sinks ...importer.Sink) *importer.Importer {
	return importer.New(importer.OptionsFromConfig(st.cfg), logger.Named("importer"), sinks...).
		WithFetcher(st.fetcher())
}
