package scrape

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/trmodding/claimatlas/internal/extract"
	"github.com/trmodding/claimatlas/internal/model"
)

// tableRow is one entry of a claims listing page.
type tableRow struct {
	URL        string
	LastUpdate string
}

// parseTable reads one claims listing page: the claim rows and the
// pagination link to the next page ("" when on the last page). URLs are
// resolved against pageURL.
func parseTable(r io.Reader, pageURL string) ([]tableRow, string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("parse listing: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse listing URL: %w", err)
	}

	var rows []tableRow
	doc.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		link := tr.Find("td a[href*='claims']").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		rows = append(rows, tableRow{
			URL:        resolveURL(base, href),
			LastUpdate: strings.TrimSpace(tr.Find("td[class*='last-updated']").First().Text()),
		})
	})

	next := ""
	if href, ok := doc.Find("li.pager-next a").First().Attr("href"); ok {
		next = resolveURL(base, href)
	}
	return rows, next, nil
}

// parseClaimPage reads one claim page into a Claim. Coordinates found in
// the description are embedded immediately, so claims arrive pre-located
// when the author wrote them down.
func parseClaimPage(r io.Reader, pageURL string, ex *extract.Extractor) (*model.Claim, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse claim page: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse claim URL: %w", err)
	}

	c := &model.Claim{
		URL:   pageURL,
		Title: strings.TrimSpace(doc.Find("h1[id*='page-title']").First().Text()),
		Stage: model.Stage(strings.TrimSpace(doc.Find("section[class*='claim-stage'] li").First().Text())),
	}

	c.Claimant = strings.TrimSpace(doc.Find("section[class*='claimant'] a").First().Text())
	doc.Find("section[class*='reviewer'] a").Each(func(_ int, a *goquery.Selection) {
		if name := strings.TrimSpace(a.Text()); name != "" {
			c.Reviewers = append(c.Reviewers, name)
		}
	})

	// Flatten the description markup into plain text; claim authors write
	// coordinates in running prose, links and formatting included.
	var desc strings.Builder
	doc.Find("article div[class*='claim-description']").Each(func(_ int, div *goquery.Selection) {
		for _, n := range div.Nodes {
			desc.WriteString(extract.VisibleText(n))
			desc.WriteByte(' ')
		}
	})
	c.Description = strings.TrimSpace(desc.String())

	if href, ok := doc.Find("div[class*='claims-images'] a.colorbox").First().Attr("href"); ok {
		c.ImageURL = resolveURL(base, href)
	}

	if x, y, ok := ex.Coords(c.Description); ok {
		c.SetCell(x, y)
	}
	return c, nil
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
