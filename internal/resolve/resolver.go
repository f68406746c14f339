// Package resolve fills missing grid-cell coordinates across a batch of
// claims using a fixed, ordered pipeline of methods: image OCR, URL
// hints, title hints, and the historical transposition fix. No step is
// fatal; a step that finds nothing leaves the batch unchanged.
package resolve

import (
	"context"
	"strings"

	"github.com/trmodding/claimatlas/internal/hints"
	"github.com/trmodding/claimatlas/internal/model"
	"github.com/trmodding/claimatlas/internal/worker"
)

// Resolver orchestrates the resolution steps over a claim batch. The
// reader may be nil when the image-OCR step is disabled.
type Resolver struct {
	reader     worker.CoordReader
	urlHints   *hints.Store
	titleHints *hints.Store

	methods string // subset of "iute"; execution order is fixed regardless
	marker  string // bracketed title token for the transposition fix
	limit   int    // transposition applies when CellX exceeds this
	offset  int    // amount subtracted from CellX
	workers int    // concurrent image reads

	// Logf receives progress diagnostics; nil discards them.
	Logf func(format string, args ...interface{})
}

// New creates a Resolver. Both stores must be non-nil (use empty stores
// when the corresponding step is disabled).
func New(cfg *model.Config, reader worker.CoordReader, urlHints, titleHints *hints.Store) *Resolver {
	workers := cfg.OCR.Workers
	if workers < 1 {
		workers = 1
	}
	return &Resolver{
		reader:     reader,
		urlHints:   urlHints,
		titleHints: titleHints,
		methods:    cfg.Resolve.Methods,
		marker:     cfg.Resolve.TransposeMarker,
		limit:      cfg.Resolve.TransposeLimit,
		offset:     cfg.Resolve.TransposeOffset,
		workers:    workers,
	}
}

// step is one named resolution strategy. Steps share a uniform contract:
// mutate the batch in place, never fail.
type step struct {
	flag byte
	name string
	run  func(ctx context.Context, claims []*model.Claim)
}

// steps returns the pipeline in its fixed declared order. The methods
// flag string selects a subset; it never reorders.
func (r *Resolver) steps() []step {
	return []step{
		{'i', "image OCR", r.stepImages},
		{'u', "URL hints", r.stepURLHints},
		{'t', "title hints", r.stepTitleHints},
		{'e', "transposition fix", r.stepTranspose},
	}
}

// Locate runs the selected steps over the batch, mutating claims in
// place, and returns the subset still missing coordinates. The result is
// deterministic given the batch, the hint stores and the recognition
// outcomes.
func (r *Resolver) Locate(ctx context.Context, claims []*model.Claim) []*model.Claim {
	r.logf("%d claims without coordinates after scrape", countUnlocated(claims))

	for _, s := range r.steps() {
		if !strings.ContainsRune(r.methods, rune(s.flag)) {
			continue
		}
		s.run(ctx, claims)
		r.logf("%d claims without coordinates after %s", countUnlocated(claims), s.name)
	}

	var unlocated []*model.Claim
	for _, c := range claims {
		if !c.Located() {
			unlocated = append(unlocated, c)
		}
	}
	if len(unlocated) > 0 {
		urls := make([]string, len(unlocated))
		for i, c := range unlocated {
			urls[i] = c.URL
		}
		r.logf("%d claims not located:\n%s", len(unlocated), strings.Join(urls, "\n"))
	} else {
		r.logf("all claims located")
	}
	return unlocated
}

// stepImages reads coordinates off claim images for claims that are
// still unlocated, are not already covered by a URL hint, and have an
// image. Claims sharing an image are grouped so each distinct image is
// recognized once; positive results are learned into the URL-hint store
// for every claim in the group, and the store is persisted once.
func (r *Resolver) stepImages(ctx context.Context, claims []*model.Claim) {
	if r.reader == nil {
		return
	}

	var order []string
	groups := make(map[string][]*model.Claim)
	for _, c := range claims {
		if c.Located() || c.ImageURL == "" || r.urlHints.Has(c.URL) {
			continue
		}
		if _, seen := groups[c.ImageURL]; !seen {
			order = append(order, c.ImageURL)
		}
		groups[c.ImageURL] = append(groups[c.ImageURL], c)
	}
	if len(order) == 0 {
		r.logf("no images to query")
		return
	}
	r.logf("reading coordinates for %d unique images", len(order))

	results := worker.ReadImages(ctx, r.reader, order, r.workers)

	learned := 0
	for _, imageURL := range order {
		res, ok := results[imageURL]
		if !ok || !res.Found {
			continue
		}
		for _, c := range groups[imageURL] {
			r.urlHints.Add(c.URL, res.X, res.Y)
			learned++
		}
	}
	if learned > 0 {
		if err := r.urlHints.Save(); err != nil {
			// Losing the learned entries costs a re-read next run, not
			// correctness.
			r.logf("could not persist URL hints: %v", err)
		}
	}
}

// stepURLHints applies URL hints with override semantics: a hinted URL
// always wins over a previously resolved coordinate.
func (r *Resolver) stepURLHints(ctx context.Context, claims []*model.Claim) {
	n := r.urlHints.ApplyURL(claims)
	r.logf("URL hints modified %d claims", n)
}

// stepTitleHints applies title-substring hints with fill-only semantics.
func (r *Resolver) stepTitleHints(ctx context.Context, claims []*model.Claim) {
	n := r.titleHints.ApplyTitle(claims)
	r.logf("title hints modified %d claims", n)
}

// stepTranspose corrects claims transposed by the known off-by-100 grid
// offset: marker in the title and CellX past the limit. Subtracting once
// drops CellX below the limit, so reapplying is a no-op.
func (r *Resolver) stepTranspose(ctx context.Context, claims []*model.Claim) {
	fixed := 0
	for _, c := range claims {
		if !c.Located() || !strings.Contains(c.Title, r.marker) {
			continue
		}
		if *c.CellX > r.limit {
			*c.CellX -= r.offset
			fixed++
		}
	}
	r.logf("fixed %d transposed claims", fixed)
}

func (r *Resolver) logf(format string, args ...interface{}) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}

func countUnlocated(claims []*model.Claim) int {
	n := 0
	for _, c := range claims {
		if !c.Located() {
			n++
		}
	}
	return n
}
