package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trmodding/claimatlas/internal/model"
)

// Renderer writes the pipeline outputs: the aggregated-cells file the
// map renderer consumes, the unlocated-claims report, and the viewport
// descriptor carrying the product's map configuration.
type Renderer struct {
	cfg *model.Config
}

// NewRenderer creates a renderer over the output configuration.
func NewRenderer(cfg *model.Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// viewport is the renderer hand-off describing how to draw the map.
type viewport struct {
	Corners      []int     `json:"corners"` // x0, x1, y0, y1 in cell units
	CornerOffset float64   `json:"corner_offset"`
	Width        float64   `json:"width"`
	Colormap     string    `json:"colormap"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// RenderCells writes the aggregated rows.
func (r *Renderer) RenderCells(cells []model.AggregatedCell) error {
	data, err := json.MarshalIndent(cells, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cells: %w", err)
	}
	if err := writeFile(r.cfg.Output.CellsPath, append(data, '\n')); err != nil {
		return err
	}
	if r.cfg.Output.Verbose {
		fmt.Printf("✓ Wrote aggregated cells: %s\n", r.cfg.Output.CellsPath)
	}
	return nil
}

// RenderUnlocated writes the claims that could not be placed and warns
// on stdout. Unlocated claims are never silently dropped.
func (r *Renderer) RenderUnlocated(unlocated []*model.Claim) error {
	if len(unlocated) == 0 {
		return nil
	}

	if err := SaveClaims(r.cfg.Output.UnlocatedPath, unlocated); err != nil {
		return err
	}

	urls := make([]string, len(unlocated))
	for i, c := range unlocated {
		urls[i] = "  " + c.URL
	}
	fmt.Printf("Warning: %d claims could not be located:\n%s\n", len(unlocated), strings.Join(urls, "\n"))
	return nil
}

// RenderViewport writes the map-viewport descriptor.
func (r *Renderer) RenderViewport() error {
	corners, err := parseCorners(r.cfg.Output.Corners)
	if err != nil {
		return err
	}

	v := viewport{
		Corners:      corners,
		CornerOffset: r.cfg.Output.CornerOffset,
		Width:        r.cfg.Output.Width,
		Colormap:     r.cfg.Output.Colormap,
		GeneratedAt:  time.Now().UTC(),
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode viewport: %w", err)
	}
	if err := writeFile(r.cfg.Output.ViewportPath, append(data, '\n')); err != nil {
		return err
	}
	if r.cfg.Output.Verbose {
		fmt.Printf("✓ Wrote map viewport: %s\n", r.cfg.Output.ViewportPath)
	}
	return nil
}

// RenderSummary prints the per-phase counts to stdout.
func (r *Renderer) RenderSummary(total, located int, cells []model.AggregatedCell) {
	fmt.Printf("Claims:    %d\n", total)
	fmt.Printf("Located:   %d\n", located)
	fmt.Printf("Unlocated: %d\n", total-located)
	fmt.Printf("Cells:     %d\n", len(cells))
}

// parseCorners reads the four space-separated viewport corners
// (x0 x1 y0 y1).
func parseCorners(s string) ([]int, error) {
	fields := strings.Fields(s)
	if len(fields) != 4 {
		return nil, fmt.Errorf("corners: expected 4 integers, got %q", s)
	}
	corners := make([]int, 4)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("corners: %w", err)
		}
		corners[i] = n
	}
	return corners, nil
}
