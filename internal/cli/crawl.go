package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/trmodding/claimatlas/internal/model"
	"github.com/trmodding/claimatlas/internal/pipeline"
)

var (
	startURL  string
	claimsOut string
	timeout   time.Duration
	userAgent string
	maxBytes  int64
	rps       float64
	maxPages  int
	noRobots  bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Scrape the wiki's claim tables into a claims file",
	Long: `Crawl fetches the claims listing, follows pagination, visits every
claim page, and writes the batch as JSON. Coordinates found in claim
descriptions are already embedded; run 'claimatlas locate' to resolve
the rest.

Example:
  claimatlas crawl --out claims.json
  claimatlas crawl --start https://www.tamriel-rebuilt.org/claims/exteriors --rate 1`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().StringVar(&startURL, "start", "", "claims listing URL (default from config)")
	crawlCmd.Flags().StringVar(&claimsOut, "out", "claims.json", "output claims JSON path")
	crawlCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-request timeout")
	crawlCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default from config)")
	crawlCmd.Flags().Int64Var(&maxBytes, "max-bytes", 8_000_000, "max response bytes to read")
	crawlCmd.Flags().Float64Var(&rps, "rate", 2, "max requests per second per host")
	crawlCmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many listing pages (0 = all)")
	crawlCmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt checks")
}

// crawlConfig applies explicitly set crawl flags on top of the layered
// configuration.
func crawlConfig(cmd *cobra.Command) *model.Config {
	cfg := loadConfig()
	f := cmd.Flags()
	if f.Changed("start") {
		cfg.Crawl.StartURL = startURL
	}
	if f.Changed("timeout") {
		cfg.HTTP.Timeout = timeout
	}
	if f.Changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if f.Changed("max-bytes") {
		cfg.HTTP.MaxBodyBytes = maxBytes
	}
	if f.Changed("rate") {
		cfg.Crawl.RequestsPerSecond = rps
	}
	if f.Changed("max-pages") {
		cfg.Crawl.MaxPages = maxPages
	}
	if f.Changed("no-robots") {
		cfg.Crawl.RespectRobots = !noRobots
	}
	return cfg
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg := crawlConfig(cmd)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Crawling: %s\n", cfg.Crawl.StartURL)
	}

	p, err := pipeline.New(noOCR(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	claims, err := p.Crawl(ctx)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	if err := pipeline.SaveClaims(claimsOut, claims); err != nil {
		return err
	}
	fmt.Printf("✓ Wrote %d claims: %s\n", len(claims), claimsOut)
	return nil
}

// noOCR disables the image step so no Tesseract engine is created for
// commands that never recognize images.
func noOCR(cfg *model.Config) *model.Config {
	out := *cfg
	out.Resolve.Methods = stripFlag(cfg.Resolve.Methods, 'i')
	return &out
}

func stripFlag(methods string, flag rune) string {
	out := make([]rune, 0, len(methods))
	for _, r := range methods {
		if r != flag {
			out = append(out, r)
		}
	}
	return string(out)
}
