package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/gsplat-palette/internal/assets"
	"github.com/Faultbox/gsplat-palette/internal/importer"
	"github.com/Faultbox/gsplat-palette/internal/logger"
	"github.com/Faultbox/gsplat-palette/internal/sink"
	"github.com/Faultbox/gsplat-palette/pkg/palette"
	"github.com/Faultbox/gsplat-palette/pkg/ply"
	"github.com/Faultbox/gsplat-palette/pkg/splat"
)

func outDirFlag() *cli.StringFlag {
	return &cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output directory (default: output.dir)"}
}

func (st *state) outDir(c *cli.Context) string {
	if dir := c.String("out"); dir != "" {
		return dir
	}
	return st.cfg.Output.Dir
}

// outputSinks builds the file sinks selected by the --texture and --glb flags.
func (st *state) outputSinks(c *cli.Context) ([]importer.Sink, *sink.PNGTexture, *sink.GLTF) {
	dir := st.outDir(c)
	var (
		sinks []importer.Sink
		tex   *sink.PNGTexture
		glb   *sink.GLTF
	)
	if c.Bool("texture") {
		tex = sink.NewPNGTexture(dir, logger.Named("texture"))
		sinks = append(sinks, tex)
	}
	if c.Bool("glb") {
		glb = sink.NewGLTF(dir, logger.Named("gltf"))
		sinks = append(sinks, glb)
	}
	return sinks, tex, glb
}

func sinkFlags() []cli.Flag {
	return []cli.Flag{
		outDirFlag(),
		&cli.BoolFlag{Name: "texture", Value: true, Usage: "write the palette texture as PNG"},
		&cli.BoolFlag{Name: "glb", Usage: "write a glTF point cloud"},
	}
}

func printResult(res *importer.Result, tex *sink.PNGTexture, glb *sink.GLTF) {
	fmt.Printf("%s: %d points, %s palette with %d colors (%d distinct)\n",
		res.Name, res.Len(), res.Palette.Mode, len(res.Palette.Colors), res.Palette.Distinct)
	if tex != nil {
		fmt.Printf("  texture: %s\n", tex.Path())
	}
	if glb != nil {
		fmt.Printf("  glb:     %s\n", glb.Path())
	}
}

func bakeCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:      "bake",
		Usage:     "import a PLY and bake its palette",
		ArgsUsage: "<in.ply>",
		Flags:     sinkFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.ShowSubcommandHelp(c)
			}
			sinks, tex, glb := st.outputSinks(c)
			res, err := st.importer(sinks...).ImportPLY(c.Context, c.Args().First())
			if err != nil {
				return err
			}
			printResult(res, tex, glb)
			return nil
		},
	}
}

func ripCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:      "rip",
		Usage:     "download a compressed splat by model id and write canonical PLY",
		ArgsUsage: "<model-id>",
		Flags: append(sinkFlags(),
			&cli.StringFlag{Name: "dir", Usage: "download directory (default: <out>/<model-id>)"},
			&cli.BoolFlag{Name: "bake", Usage: "also bake the palette"},
			&cli.BoolFlag{Name: "zst", Usage: "write .ply.zst"},
			&cli.BoolFlag{Name: "keep-temp", Usage: "keep downloaded channel images"},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.ShowSubcommandHelp(c)
			}
			id := c.Args().First()
			dir := c.String("dir")
			if dir == "" {
				dir = filepath.Join(st.outDir(c), id)
			}
			if c.Bool("keep-temp") {
				st.cfg.Download.KeepTemp = true
			}

			var (
				sinks []importer.Sink
				tex   *sink.PNGTexture
				glb   *sink.GLTF
			)
			if c.Bool("bake") {
				sinks, tex, glb = st.outputSinks(c)
			}
			out, err := st.importer(sinks...).Rip(c.Context, id, dir, c.Bool("zst"), c.Bool("bake"))
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d points from %s\n", id, out.Rip.Set.Len(), out.Rip.Manifest.BaseURL)
			fmt.Printf("  ply: %s\n", out.Rip.PLYPath)
			if out.Import != nil {
				printResult(out.Import, tex, glb)
			}
			return nil
		},
	}
}

func convertCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "convert a local compressed splat directory to canonical PLY",
		ArgsUsage: "<dir> <out.ply>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return cli.ShowSubcommandHelp(c)
			}
			set, err := st.importer().ConvertCompressedDir(c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return err
			}
			fmt.Printf("wrote %d points to %s\n", set.Len(), c.Args().Get(1))
			return nil
		},
	}
}

func infoCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "show PLY header, point count and palette mode",
		ArgsUsage: "<in.ply>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.ShowSubcommandHelp(c)
			}
			path := c.Args().First()
			cloud, err := ply.ReadFile(path)
			if err != nil {
				return err
			}

			h := cloud.Header
			fmt.Printf("File:       %s\n", path)
			fmt.Printf("Format:     %s %s\n", h.Format, h.Version)
			fmt.Printf("Points:     %d\n", h.Count)
			fmt.Printf("Stride:     %d bytes\n", h.Stride())
			for _, line := range h.Comments {
				fmt.Printf("Comment:    %s\n", line)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "\nPROPERTY\tTYPE\tOFFSET")
			for _, p := range h.Properties {
				fmt.Fprintf(w, "%s\t%s\t%d\n", p.Name, p.Type, p.Offset)
			}
			w.Flush()

			set, err := splat.FromPLY(cloud, splat.DecodeOptions{})
			if err != nil {
				return err
			}
			if set.Len() == 0 {
				return nil
			}
			opts := importer.OptionsFromConfig(st.cfg).Bake
			pal, err := palette.Bake(set.Colors, opts)
			if err != nil {
				return err
			}
			fmt.Printf("\nDistinct colors: %d\n", pal.Distinct)
			fmt.Printf("Palette mode:    %s (%d entries, capacity %d)\n", pal.Mode, len(pal.Colors), pal.Capacity())
			return nil
		},
	}
}

func assetsCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:      "assets",
		Usage:     "list brush textures",
		ArgsUsage: "[brush-dir]",
		Action: func(c *cli.Context) error {
			root := st.cfg.Assets.BrushDir
			if c.NArg() > 0 {
				root = c.Args().First()
			}
			cat := assets.NewCatalog(root, st.cfg.Assets.ScanTTL)
			brushes, err := cat.Brushes()
			if err != nil {
				return err
			}
			if len(brushes) == 0 {
				fmt.Printf("No brush textures in %s\n", filepath.Join(root, assets.AlphaDir))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tTYPE\tNORMAL MAP")
			for _, b := range brushes {
				normal := "-"
				if b.NormalMap != "" {
					normal = b.NormalMap
				}
				fmt.Fprintf(w, "%s\t%dx%d\t%s\t%s\n", b.Name, b.Width, b.Height, b.Kind, normal)
			}
			return w.Flush()
		},
	}
}

func configCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "inspect or save the effective configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the effective configuration as YAML",
				Action: func(c *cli.Context) error {
					data, err := yaml.Marshal(st.cfg)
					if err != nil {
						return fmt.Errorf("encoding config: %w", err)
					}
					_, err = c.App.Writer.Write(data)
					return err
				},
			},
			{
				Name:      "save",
				Usage:     "write the effective configuration",
				ArgsUsage: "[path]",
				Action: func(c *cli.Context) error {
					if c.NArg() > 0 {
						path := c.Args().First()
						if err := st.cfg.SaveTo(path); err != nil {
							return err
						}
						fmt.Printf("saved %s\n", path)
						return nil
					}
					path, err := st.cfg.Save()
					if err != nil {
						return err
					}
					fmt.Printf("saved %s\n", path)
					return nil
				},
			},
		},
	}
}
