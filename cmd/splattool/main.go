// splattool imports 3D Gaussian splat assets, bakes their color palettes
// and fetches compressed web splats.
package main

import (
	"fmt"
	"os"

	"github.com/Faultbox/gsplat-palette/internal/importer"
	"github.com/Faultbox/gsplat-palette/internal/logger"
)

func main() {
	app := newApp()
	err := app.Run(os.Args)
	logger.Sync()
	if err != nil {
		if f, ok := importer.AsFailure(err); ok {
			fmt.Fprintln(os.Stderr, f.Message())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
