package resolve

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/trmodding/claimatlas/internal/hints"
	"github.com/trmodding/claimatlas/internal/model"
)

// fakeReader serves canned coordinates per image URL and records how
// often each URL is queried.
type fakeReader struct {
	mu     sync.Mutex
	coords map[string][2]int
	calls  map[string]int
}

func newFakeReader(coords map[string][2]int) *fakeReader {
	return &fakeReader{coords: coords, calls: make(map[string]int)}
}

func (f *fakeReader) ReadCoords(ctx context.Context, imageURL string) (int, int, bool) {
	f.mu.Lock()
	f.calls[imageURL]++
	f.mu.Unlock()
	xy, ok := f.coords[imageURL]
	return xy[0], xy[1], ok
}

func testResolver(t *testing.T, methods string, reader *fakeReader) (*Resolver, *hints.Store, *hints.Store) {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Resolve.Methods = methods
	urlHints := hints.Load(filepath.Join(t.TempDir(), "url_hints.json"))
	titleHints := hints.Load(filepath.Join(t.TempDir(), "title_hints.json"))
	var r *Resolver
	if reader != nil {
		r = New(cfg, reader, urlHints, titleHints)
	} else {
		r = New(cfg, nil, urlHints, titleHints)
	}
	return r, urlHints, titleHints
}

func claim(title, url, imageURL string) *model.Claim {
	return &model.Claim{Title: title, Stage: model.StageDesign, URL: url, ImageURL: imageURL}
}

func TestLocate_ImageStepLearnsURLHints(t *testing.T) {
	reader := newFakeReader(map[string][2]int{
		"https://img/a.png": {3, -5},
	})
	r, urlHints, _ := testResolver(t, "iu", reader)

	// Two claims share one image; a third has no image at all.
	a := claim("Vos Docks", "https://wiki/claims/1", "https://img/a.png")
	b := claim("Vos Manor", "https://wiki/claims/2", "https://img/a.png")
	c := claim("No picture", "https://wiki/claims/3", "")

	unlocated := r.Locate(context.Background(), []*model.Claim{a, b, c})

	for _, cl := range []*model.Claim{a, b} {
		if !cl.Located() {
			t.Fatalf("%s not located", cl.Title)
		}
		if x, y := cl.Cell(); x != 3 || y != -5 {
			t.Errorf("%s: expected (3,-5), got (%d,%d)", cl.Title, x, y)
		}
	}
	if len(unlocated) != 1 || unlocated[0] != c {
		t.Errorf("Expected only the imageless claim unlocated, got %d", len(unlocated))
	}
	if reader.calls["https://img/a.png"] != 1 {
		t.Errorf("Shared image read %d times, want 1", reader.calls["https://img/a.png"])
	}
	// Both claims learned an entry keyed by their own URL.
	if !urlHints.Has(a.URL) || !urlHints.Has(b.URL) {
		t.Error("Expected learned URL hints for both claims")
	}
}

func TestLocate_ImageStepSkipsHintedURLs(t *testing.T) {
	reader := newFakeReader(nil)
	r, urlHints, _ := testResolver(t, "iu", reader)
	urlHints.Add("https://wiki/claims/1", 7, 8)

	a := claim("Hinted already", "https://wiki/claims/1", "https://img/a.png")
	r.Locate(context.Background(), []*model.Claim{a})

	if len(reader.calls) != 0 {
		t.Errorf("Image read despite existing URL hint: %v", reader.calls)
	}
	if x, y := a.Cell(); x != 7 || y != 8 {
		t.Errorf("Expected hinted (7,8), got (%d,%d)", x, y)
	}
}

func TestLocate_URLHintsOverrideExistingCoords(t *testing.T) {
	r, urlHints, _ := testResolver(t, "u", nil)
	urlHints.Add("https://wiki/claims/1", -10, 20)

	a := claim("Already placed", "https://wiki/claims/1", "")
	a.SetCell(1, 1)

	r.Locate(context.Background(), []*model.Claim{a})

	if x, y := a.Cell(); x != -10 || y != 20 {
		t.Errorf("URL hint must override: expected (-10,20), got (%d,%d)", x, y)
	}
}

func TestLocate_TitleHintsFillOnly(t *testing.T) {
	r, _, titleHints := testResolver(t, "t", nil)
	titleHints.Add("docks", 5, 6)

	placed := claim("Vos Docks", "https://wiki/claims/1", "")
	placed.SetCell(1, 1)
	empty := claim("Old Docks Warehouse", "https://wiki/claims/2", "")

	r.Locate(context.Background(), []*model.Claim{placed, empty})

	if x, y := placed.Cell(); x != 1 || y != 1 {
		t.Errorf("Title hint must not override: expected (1,1), got (%d,%d)", x, y)
	}
	if x, y := empty.Cell(); x != 5 || y != 6 {
		t.Errorf("Expected fill to (5,6), got (%d,%d)", x, y)
	}
}

func TestLocate_TranspositionAppliesOnce(t *testing.T) {
	r, _, _ := testResolver(t, "e", nil)

	a := claim("[ITO] Telvanni Tower", "https://wiki/claims/1", "")
	a.SetCell(142, -7)
	unmarked := claim("Telvanni Tower", "https://wiki/claims/2", "")
	unmarked.SetCell(142, -7)
	inRange := claim("[ITO] Small Cave", "https://wiki/claims/3", "")
	inRange.SetCell(42, -7)

	batch := []*model.Claim{a, unmarked, inRange}
	r.Locate(context.Background(), batch)

	if x, _ := a.Cell(); x != 42 {
		t.Errorf("Expected marked claim shifted to 42, got %d", x)
	}
	if x, _ := unmarked.Cell(); x != 142 {
		t.Errorf("Unmarked claim must not shift, got %d", x)
	}
	if x, _ := inRange.Cell(); x != 42 {
		t.Errorf("Marked claim within range must not shift, got %d", x)
	}

	// Running the step again changes nothing.
	r.Locate(context.Background(), batch)
	if x, _ := a.Cell(); x != 42 {
		t.Errorf("Second pass shifted again: got %d", x)
	}
}

func TestLocate_FlagOrderDoesNotMatter(t *testing.T) {
	run := func(methods string) (int, int) {
		r, urlHints, titleHints := testResolver(t, methods, nil)
		urlHints.Add("https://wiki/claims/1", 100, 0)
		titleHints.Add("tower", 1, 1)

		a := claim("Tower", "https://wiki/claims/1", "")
		r.Locate(context.Background(), []*model.Claim{a})
		return a.Cell()
	}

	x1, y1 := run("ut")
	x2, y2 := run("tu")
	if x1 != x2 || y1 != y2 {
		t.Fatalf("Flag order changed outcome: (%d,%d) vs (%d,%d)", x1, y1, x2, y2)
	}
	// URL hints always run before title hints, so the title hint sees the
	// claim already located and leaves it alone.
	if x1 != 100 || y1 != 0 {
		t.Errorf("Expected URL hint to win: got (%d,%d)", x1, y1)
	}
}

func TestLocate_FailedReadsAreDeterministic(t *testing.T) {
	reader := newFakeReader(nil) // every read fails
	r, _, _ := testResolver(t, "itue", reader)

	batch := func() []*model.Claim {
		return []*model.Claim{
			claim("One", "https://wiki/claims/1", "https://img/1.png"),
			claim("Two", "https://wiki/claims/2", "https://img/2.png"),
		}
	}

	first := r.Locate(context.Background(), batch())
	second := r.Locate(context.Background(), batch())

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("Expected both claims unlocated on both passes, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].URL != second[i].URL {
			t.Errorf("Unlocated order differs at %d: %s vs %s", i, first[i].URL, second[i].URL)
		}
	}
}

func TestLocate_CoordinatesSetTogether(t *testing.T) {
	reader := newFakeReader(map[string][2]int{"https://img/1.png": {9, -9}})
	r, _, titleHints := testResolver(t, "itue", reader)
	titleHints.Add("two", 4, 4)

	batch := []*model.Claim{
		claim("One", "https://wiki/claims/1", "https://img/1.png"),
		claim("Two", "https://wiki/claims/2", ""),
		claim("Three", "https://wiki/claims/3", ""),
	}
	r.Locate(context.Background(), batch)

	for _, c := range batch {
		if (c.CellX == nil) != (c.CellY == nil) {
			t.Errorf("%s: one coordinate set without the other", c.Title)
		}
	}
}
