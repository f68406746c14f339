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
	claimsIn    string
	locatedOut  string
	methods     string
	urlHints    string
	titleHints  string
	ocrWorkers  int
	ocrLanguage string
	noCache     bool
)

// locateCmd represents the locate command
var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Resolve claim grid cells in a claims file",
	Long: `Locate runs the resolution steps over a crawled claims file: image
OCR, URL hints, title hints, and the transposition fix. Coordinates
learned from images are persisted to the URL hint database so later
runs skip the recognition.

The methods string selects steps ('i' image OCR, 'u' URL hints,
't' title hints, 'e' transposition fix); execution order is fixed.

Example:
  claimatlas locate --in claims.json --out claims.json
  claimatlas locate --in claims.json --methods ute`,
	Args: cobra.NoArgs,
	RunE: runLocate,
}

func init() {
	rootCmd.AddCommand(locateCmd)

	locateCmd.Flags().StringVar(&claimsIn, "in", "claims.json", "input claims JSON path")
	locateCmd.Flags().StringVar(&locatedOut, "out", "claims.json", "output claims JSON path")
	locateCmd.Flags().StringVar(&methods, "methods", "itue", "resolution steps to run")
	locateCmd.Flags().StringVar(&urlHints, "url-hints", "", "URL hint database path (default from config)")
	locateCmd.Flags().StringVar(&titleHints, "title-hints", "", "title hint database path (default from config)")
	locateCmd.Flags().IntVar(&ocrWorkers, "ocr-workers", 1, "concurrent image reads")
	locateCmd.Flags().StringVar(&ocrLanguage, "ocr-language", "eng", "Tesseract language")
	locateCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the OCR result cache")
}

// locateConfig applies explicitly set locate flags on top of the layered
// configuration.
func locateConfig(cmd *cobra.Command) *model.Config {
	cfg := loadConfig()
	f := cmd.Flags()
	if f.Changed("methods") {
		cfg.Resolve.Methods = methods
	}
	if f.Changed("url-hints") {
		cfg.Hints.URLPath = urlHints
	}
	if f.Changed("title-hints") {
		cfg.Hints.TitlePath = titleHints
	}
	if f.Changed("ocr-workers") {
		cfg.OCR.Workers = ocrWorkers
	}
	if f.Changed("ocr-language") {
		cfg.OCR.Language = ocrLanguage
	}
	if f.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	return cfg
}

func runLocate(cmd *cobra.Command, args []string) error {
	cfg := locateConfig(cmd)

	claims, err := pipeline.LoadClaims(claimsIn)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Locating %d claims from %s\n", len(claims), claimsIn)
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	unlocated := p.Locate(ctx, claims)

	if err := pipeline.SaveClaims(locatedOut, claims); err != nil {
		return err
	}
	fmt.Printf("✓ Wrote %d claims (%d located): %s\n", len(claims), len(claims)-len(unlocated), locatedOut)
	return nil
}
