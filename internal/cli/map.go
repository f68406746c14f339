package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trmodding/claimatlas/internal/model"
	"github.com/trmodding/claimatlas/internal/pipeline"
)

var (
	mapClaimsIn  string
	cellsOut     string
	unlocatedOut string
	viewportOut  string
	mapMethods   string
	corners      string
	cornerOffset float64
	mapWidth     float64
	colormap     string
	mapNoCache   bool
)

// mapCmd represents the map command
var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Produce the claims map data (crawl, locate, aggregate)",
	Long: `Map runs the whole pipeline: scrape the claim tables, resolve grid
cells, aggregate claims per cell, and write the renderer inputs (the
aggregated cells, the unlocated-claims report, and the map viewport
descriptor).

With --claims the crawl is skipped and the batch is read from a file.

Example:
  claimatlas map
  claimatlas map --claims claims.json --cells aggregated_claims.json
  claimatlas map --corners "-42 61 -64 38" --colormap Viridis`,
	Args: cobra.NoArgs,
	RunE: runMap,
}

func init() {
	rootCmd.AddCommand(mapCmd)

	mapCmd.Flags().StringVar(&mapClaimsIn, "claims", "", "read claims from this file instead of crawling")
	mapCmd.Flags().StringVar(&cellsOut, "cells", "aggregated_claims.json", "aggregated cells output path")
	mapCmd.Flags().StringVar(&unlocatedOut, "unlocated", "unlocated_claims.json", "unlocated claims output path")
	mapCmd.Flags().StringVar(&viewportOut, "viewport", "map_viewport.json", "map viewport output path")
	mapCmd.Flags().StringVar(&mapMethods, "methods", "itue", "resolution steps to run")
	mapCmd.Flags().StringVar(&corners, "corners", "", "map corners \"x0 x1 y0 y1\" (default from config)")
	mapCmd.Flags().Float64Var(&cornerOffset, "corner-offset", -0.5, "cell-edge offset applied by the renderer")
	mapCmd.Flags().Float64Var(&mapWidth, "width", 900, "rendered map width in pixels")
	mapCmd.Flags().StringVar(&colormap, "colormap", "Plasma", "stage colormap name")
	mapCmd.Flags().BoolVar(&mapNoCache, "no-cache", false, "disable the OCR result cache")
}

// mapConfig applies explicitly set map flags on top of the layered
// configuration.
func mapConfig(cmd *cobra.Command) *model.Config {
	cfg := loadConfig()
	f := cmd.Flags()
	if f.Changed("methods") {
		cfg.Resolve.Methods = mapMethods
	}
	if f.Changed("no-cache") {
		cfg.Cache.Enabled = !mapNoCache
	}
	if f.Changed("cells") {
		cfg.Output.CellsPath = cellsOut
	}
	if f.Changed("unlocated") {
		cfg.Output.UnlocatedPath = unlocatedOut
	}
	if f.Changed("viewport") {
		cfg.Output.ViewportPath = viewportOut
	}
	if f.Changed("corners") {
		cfg.Output.Corners = corners
	}
	if f.Changed("corner-offset") {
		cfg.Output.CornerOffset = cornerOffset
	}
	if f.Changed("width") {
		cfg.Output.Width = mapWidth
	}
	if f.Changed("colormap") {
		cfg.Output.Colormap = colormap
	}
	return cfg
}

func runMap(cmd *cobra.Command, args []string) error {
	cfg := mapConfig(cmd)

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if mapClaimsIn != "" {
		claims, err := pipeline.LoadClaims(mapClaimsIn)
		if err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Processing %d claims from %s\n", len(claims), mapClaimsIn)
		}
		return p.Process(ctx, claims)
	}
	return p.Run(ctx)
}
