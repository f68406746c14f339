package scrape

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/trmodding/claimatlas/internal/extract"
	"github.com/trmodding/claimatlas/internal/model"
	"github.com/trmodding/claimatlas/internal/util"
	"github.com/trmodding/claimatlas/internal/worker"
)

// Crawler walks the claims listing and every claim page it links. One
// broken claim page is logged and skipped; a broken listing page aborts
// the crawl, since it would silently truncate the batch.
type Crawler struct {
	fetcher       *Fetcher
	limiter       *worker.Limiter
	robots        *util.RobotsChecker
	extractor     *extract.Extractor
	respectRobots bool
	maxPages      int
	verbose       bool
}

// NewCrawler wires a Crawler from configuration.
func NewCrawler(cfg *model.Config) *Crawler {
	return &Crawler{
		fetcher:       NewFetcher(cfg),
		limiter:       worker.NewLimiter(cfg.Crawl.RequestsPerSecond, cfg.Crawl.Burst),
		robots:        util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout),
		extractor:     extract.NewDefaultExtractor(),
		respectRobots: cfg.Crawl.RespectRobots,
		maxPages:      cfg.Crawl.MaxPages,
		verbose:       cfg.Output.Verbose,
	}
}

// Crawl fetches the listing at startURL, follows pagination, then visits
// each claim page. Claims come back in listing order.
func (c *Crawler) Crawl(ctx context.Context, startURL string) ([]*model.Claim, error) {
	rows, err := c.crawlListing(ctx, startURL)
	if err != nil {
		return nil, err
	}
	c.debugf("found %d claims in the tables", len(rows))

	claims := make([]*model.Claim, 0, len(rows))
	for _, row := range rows {
		claim, err := c.crawlClaim(ctx, row)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.debugf("skipping claim %s: %v", row.URL, err)
			continue
		}
		claims = append(claims, claim)
	}
	return claims, nil
}

// crawlListing follows the pagination chain and collects claim rows.
func (c *Crawler) crawlListing(ctx context.Context, startURL string) ([]tableRow, error) {
	var rows []tableRow
	seen := make(map[string]bool)

	pageURL := startURL
	for pages := 0; pageURL != "" && !seen[pageURL]; pages++ {
		if c.maxPages > 0 && pages >= c.maxPages {
			break
		}
		seen[pageURL] = true

		body, finalURL, err := c.fetch(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("listing page %s: %w", pageURL, err)
		}
		pageRows, next, err := parseTable(body, finalURL)
		if err != nil {
			return nil, fmt.Errorf("listing page %s: %w", pageURL, err)
		}
		c.debugf("listing %s: %d rows", pageURL, len(pageRows))

		rows = append(rows, pageRows...)
		pageURL = next
	}
	return rows, nil
}

func (c *Crawler) crawlClaim(ctx context.Context, row tableRow) (*model.Claim, error) {
	body, finalURL, err := c.fetch(ctx, row.URL)
	if err != nil {
		return nil, err
	}
	claim, err := parseClaimPage(body, finalURL, c.extractor)
	if err != nil {
		return nil, err
	}
	claim.LastUpdate = row.LastUpdate
	return claim, nil
}

// fetch applies the politeness rules and retrieves one page.
func (c *Crawler) fetch(ctx context.Context, rawURL string) (io.Reader, string, error) {
	var crawlDelay time.Duration
	if c.respectRobots {
		allowed, delay, err := c.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, "", err
		}
		if !allowed {
			return nil, "", fmt.Errorf("disallowed by robots.txt: %s", rawURL)
		}
		crawlDelay = delay
	}
	if err := c.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return nil, "", err
	}
	return c.fetcher.Fetch(ctx, rawURL)
}

func (c *Crawler) debugf(format string, args ...interface{}) {
	if c.verbose {
		fmt.Fprintf(os.Stderr, "scrape: "+format+"\n", args...)
	}
}
