// Package pipeline orchestrates the full run: crawl the claim tables,
// resolve missing locations, aggregate per cell, render the outputs.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/trmodding/claimatlas/internal/aggregate"
	"github.com/trmodding/claimatlas/internal/cache"
	"github.com/trmodding/claimatlas/internal/hints"
	"github.com/trmodding/claimatlas/internal/model"
	"github.com/trmodding/claimatlas/internal/ocr"
	"github.com/trmodding/claimatlas/internal/resolve"
	"github.com/trmodding/claimatlas/internal/scrape"
	"github.com/trmodding/claimatlas/internal/worker"
)

// Pipeline wires the components of one run.
type Pipeline struct {
	cfg      *model.Config
	crawler  *scrape.Crawler
	resolver *resolve.Resolver
	renderer *Renderer
	engine   *ocr.Engine // nil when image OCR is disabled
}

// New builds a pipeline from configuration. The Tesseract engine is
// created only when the image-OCR step is selected, so runs without 'i'
// work on machines without Tesseract installed.
func New(cfg *model.Config) (*Pipeline, error) {
	urlHints := hints.Load(cfg.Hints.URLPath)
	titleHints := hints.Load(cfg.Hints.TitlePath)

	var engine *ocr.Engine
	var reader *ocr.Reader
	if strings.Contains(cfg.Resolve.Methods, "i") {
		e, err := ocr.NewEngine(cfg.OCR.Language, cfg.OCR.Whitelist)
		if err != nil {
			return nil, fmt.Errorf("initialize OCR engine: %w", err)
		}
		engine = e

		var c cache.Cache
		if cfg.Cache.Enabled {
			c = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		}
		reader = ocr.NewReader(cfg, engine, c)
	}

	resolver := resolve.New(cfg, readerOrNil(reader), urlHints, titleHints)
	if cfg.Output.Verbose {
		resolver.Logf = func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, "resolve: "+format+"\n", args...)
		}
	}

	return &Pipeline{
		cfg:      cfg,
		crawler:  scrape.NewCrawler(cfg),
		resolver: resolver,
		renderer: NewRenderer(cfg),
		engine:   engine,
	}, nil
}

// readerOrNil keeps a nil *ocr.Reader from becoming a non-nil interface.
func readerOrNil(r *ocr.Reader) worker.CoordReader {
	if r == nil {
		return nil
	}
	return r
}

// Close releases the OCR engine, if any.
func (p *Pipeline) Close() error {
	if p.engine != nil {
		return p.engine.Close()
	}
	return nil
}

// Crawl fetches the claim batch from the wiki.
func (p *Pipeline) Crawl(ctx context.Context) ([]*model.Claim, error) {
	start := time.Now()
	claims, err := p.crawler.Crawl(ctx, p.cfg.Crawl.StartURL)
	if err != nil {
		return nil, fmt.Errorf("crawl: %w", err)
	}
	if p.cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "pipeline: crawled %d claims in %s\n", len(claims), time.Since(start).Round(time.Millisecond))
	}
	return claims, nil
}

// Locate resolves missing coordinates and returns the still-unlocated
// subset.
func (p *Pipeline) Locate(ctx context.Context, claims []*model.Claim) []*model.Claim {
	return p.resolver.Locate(ctx, claims)
}

// Run executes the full crawl → locate → aggregate → render sequence.
func (p *Pipeline) Run(ctx context.Context) error {
	claims, err := p.Crawl(ctx)
	if err != nil {
		return err
	}
	return p.Process(ctx, claims)
}

// Process runs the post-crawl phases over an already obtained batch.
func (p *Pipeline) Process(ctx context.Context, claims []*model.Claim) error {
	unlocated := p.Locate(ctx, claims)

	cells := aggregate.Aggregate(claims)

	if err := p.renderer.RenderCells(cells); err != nil {
		return err
	}
	if err := p.renderer.RenderUnlocated(unlocated); err != nil {
		return err
	}
	if err := p.renderer.RenderViewport(); err != nil {
		return err
	}
	p.renderer.RenderSummary(len(claims), len(claims)-len(unlocated), cells)
	return nil
}
