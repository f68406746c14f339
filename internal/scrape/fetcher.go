// Package scrape crawls the wiki's claim tables and claim pages into
// model.Claim values. Fetching is polite (robots.txt, per-host rate
// limit) and parsing is separated from transport so it can be tested
// against fixtures.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/trmodding/claimatlas/internal/model"
	"github.com/trmodding/claimatlas/internal/util"
)

// Fetcher retrieves HTML pages with the configured identity and body
// size limit.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// NewFetcher wires a Fetcher from configuration.
func NewFetcher(cfg *model.Config) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.HTTP.UserAgent,
		maxBytes:  cfg.HTTP.MaxBodyBytes,
	}
}

// Fetch retrieves the page at rawURL and returns its body and the final
// URL after redirects.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (io.Reader, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return strings.NewReader(string(body)), resp.Request.URL.String(), nil
}
