package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/trmodding/claimatlas/internal/extract"
	"github.com/trmodding/claimatlas/internal/model"
)

const listingPage = `<html><body>
<table><tbody>
<tr>
  <td><a href="/claims/interiors/vos-docks">Vos Docks</a></td>
  <td class="views-field-last-updated">2026-05-01</td>
</tr>
<tr>
  <td><a href="/claims/interiors/old-mine">Old Mine</a></td>
  <td class="views-field-last-updated">2026-04-12</td>
</tr>
<tr><td>no link in this row</td></tr>
</tbody></table>
<ul class="pager"><li class="pager-next"><a href="?page=1">next</a></li></ul>
</body></html>`

const lastListingPage = `<html><body>
<table><tbody>
<tr>
  <td><a href="/claims/interiors/tower">Tower</a></td>
  <td class="views-field-last-updated">2026-03-30</td>
</tr>
</tbody></table>
</body></html>`

const claimPage = `<html><body>
<h1 id="page-title">Vos Docks</h1>
<article>
  <section class="field-claim-stage"><ul><li>In Development</li></ul></section>
  <section class="field-claimant"><a href="/user/7">alice</a></section>
  <section class="field-reviewer"><a href="/user/8">bob</a><a href="/user/9">carol</a></section>
  <div class="field-claim-description">
    <p>Dockside warehouse in cell <strong>12, -7</strong> and the adjacent pier.</p>
    <script>var tracked = true;</script>
  </div>
  <div class="claims-images">
    <a class="colorbox" href="/files/vos-docks.png"><img src="/files/thumb.png"></a>
  </div>
</article>
</body></html>`

func TestParseTable(t *testing.T) {
	rows, next, err := parseTable(strings.NewReader(listingPage), "https://wiki.example/claims/interiors")
	if err != nil {
		t.Fatalf("parseTable: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].URL != "https://wiki.example/claims/interiors/vos-docks" {
		t.Errorf("Unexpected row URL %s", rows[0].URL)
	}
	if rows[0].LastUpdate != "2026-05-01" {
		t.Errorf("Unexpected last update %q", rows[0].LastUpdate)
	}
	if next != "https://wiki.example/claims/interiors?page=1" {
		t.Errorf("Unexpected next page %s", next)
	}
}

func TestParseTable_LastPage(t *testing.T) {
	rows, next, err := parseTable(strings.NewReader(lastListingPage), "https://wiki.example/claims/interiors?page=1")
	if err != nil {
		t.Fatalf("parseTable: %v", err)
	}
	if len(rows) != 1 || next != "" {
		t.Errorf("Expected 1 row and no next page, got %d rows, next %q", len(rows), next)
	}
}

func TestParseClaimPage(t *testing.T) {
	ex := extract.NewDefaultExtractor()
	c, err := parseClaimPage(strings.NewReader(claimPage), "https://wiki.example/claims/interiors/vos-docks", ex)
	if err != nil {
		t.Fatalf("parseClaimPage: %v", err)
	}

	if c.Title != "Vos Docks" {
		t.Errorf("Unexpected title %q", c.Title)
	}
	if c.Stage != model.StageInDev {
		t.Errorf("Unexpected stage %q", c.Stage)
	}
	if c.Claimant != "alice" {
		t.Errorf("Unexpected claimant %q", c.Claimant)
	}
	if want := []string{"bob", "carol"}; !reflect.DeepEqual(c.Reviewers, want) {
		t.Errorf("Expected reviewers %v, got %v", want, c.Reviewers)
	}
	if strings.Contains(c.Description, "tracked") {
		t.Error("Script content leaked into the description")
	}
	if c.ImageURL != "https://wiki.example/files/vos-docks.png" {
		t.Errorf("Unexpected image URL %s", c.ImageURL)
	}
	if !c.Located() {
		t.Fatal("Expected coordinates from the description")
	}
	if x, y := c.Cell(); x != 12 || y != -7 {
		t.Errorf("Expected (12,-7), got (%d,%d)", x, y)
	}
}

func TestParseClaimPage_NoCoordinates(t *testing.T) {
	page := `<html><body><h1 id="page-title">Vague</h1>
<article><div class="field-claim-description"><p>Somewhere nice.</p></div></article></body></html>`

	c, err := parseClaimPage(strings.NewReader(page), "https://wiki.example/claims/interiors/vague", extract.NewDefaultExtractor())
	if err != nil {
		t.Fatalf("parseClaimPage: %v", err)
	}
	if c.Located() {
		t.Error("Expected no coordinates")
	}
	if c.ImageURL != "" {
		t.Errorf("Expected no image, got %s", c.ImageURL)
	}
}

func TestCrawl_FollowsPaginationAndClaims(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	serve := func(path, body string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
	}
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/claims/interiors", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			_, _ = w.Write([]byte(lastListingPage))
			return
		}
		_, _ = w.Write([]byte(listingPage))
	})
	serve("/claims/interiors/vos-docks", claimPage)
	serve("/claims/interiors/old-mine", `<html><body><h1 id="page-title">Old Mine</h1></body></html>`)
	serve("/claims/interiors/tower", `<html><body><h1 id="page-title">Tower</h1></body></html>`)

	cfg := model.DefaultConfig()
	cfg.Crawl.RequestsPerSecond = 1000
	cfg.Crawl.Burst = 100
	crawler := NewCrawler(cfg)

	claims, err := crawler.Crawl(context.Background(), server.URL+"/claims/interiors")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(claims) != 3 {
		t.Fatalf("Expected 3 claims, got %d", len(claims))
	}

	titles := make([]string, len(claims))
	for i, c := range claims {
		titles[i] = c.Title
	}
	if want := []string{"Vos Docks", "Old Mine", "Tower"}; !reflect.DeepEqual(titles, want) {
		t.Errorf("Expected titles %v in listing order, got %v", want, titles)
	}
	if claims[0].LastUpdate != "2026-05-01" {
		t.Errorf("Listing metadata not carried over: %q", claims[0].LastUpdate)
	}
}

func TestCrawl_SkipsBrokenClaimPage(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/claims/interiors", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><table><tbody>
<tr><td><a href="/claims/interiors/gone">Gone</a></td></tr>
<tr><td><a href="/claims/interiors/tower">Tower</a></td></tr>
</tbody></table></body></html>`))
	})
	mux.HandleFunc("/claims/interiors/gone", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/claims/interiors/tower", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1 id="page-title">Tower</h1></body></html>`))
	})

	cfg := model.DefaultConfig()
	cfg.Crawl.RequestsPerSecond = 1000
	crawler := NewCrawler(cfg)

	claims, err := crawler.Crawl(context.Background(), server.URL+"/claims/interiors")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(claims) != 1 || claims[0].Title != "Tower" {
		t.Errorf("Expected only the reachable claim, got %d", len(claims))
	}
}

func TestCrawl_RespectsRobots(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /claims/\n"))
	})

	cfg := model.DefaultConfig()
	cfg.Crawl.RequestsPerSecond = 1000
	crawler := NewCrawler(cfg)

	if _, err := crawler.Crawl(context.Background(), server.URL+"/claims/interiors"); err == nil {
		t.Fatal("Expected an error for a robots-disallowed listing")
	}
}
