// Package aggregate folds located claims into per-cell summaries for the
// map renderer: a stable detail listing, per-stage counts, a
// representative stage, and a marker size scaled by claim count.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/trmodding/claimatlas/internal/model"
)

// StageMean returns the representative stage for a set of claims in one
// cell. The mean stage index is rounded and snapped to the nearest stage
// present in the input; ties go to the first-encountered stage. Design
// never represents a cell that holds any actual work, so when the result
// is Design and anything else is present, Design entries are removed and
// the mean recomputed.
func StageMean(stages []model.Stage) model.Stage {
	if len(stages) == 0 {
		return ""
	}

	current := append([]model.Stage(nil), stages...)
	for {
		mean := meanStage(current)
		if mean != model.StageDesign {
			return mean
		}

		var rest []model.Stage
		for _, s := range current {
			if s != model.StageDesign {
				rest = append(rest, s)
			}
		}
		if len(rest) == 0 {
			// Nothing but Design: Design it is.
			return model.StageDesign
		}
		current = rest
	}
}

// meanStage computes the rounded mean index and snaps it to the nearest
// stage present, first-encountered on ties. Halfway means round to the
// even index, so {Claim Pending, In Development} reads as Claim Pending.
func meanStage(stages []model.Stage) model.Stage {
	indices := make([]float64, len(stages))
	for i, s := range stages {
		indices[i] = float64(s.Index())
	}
	target := math.RoundToEven(stat.Mean(indices, nil))

	best := stages[0]
	bestDist := math.Abs(float64(best.Index()) - target)
	for _, s := range stages[1:] {
		if d := math.Abs(float64(s.Index()) - target); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}

func stageRank(s model.Stage) int {
	if i := s.Index(); i >= 0 {
		return i
	}
	return len(model.Stages)
}

// StageCounts tallies stages in vocabulary order, skipping absent ones.
func StageCounts(stages []model.Stage) model.StageGroups {
	counts := make(map[model.Stage]int, len(stages))
	for _, s := range stages {
		counts[s]++
	}

	var g model.StageGroups
	for _, s := range model.Stages {
		if n := counts[s]; n > 0 {
			g.Stages = append(g.Stages, s)
			g.Counts = append(g.Counts, n)
			delete(counts, s)
		}
	}
	// Stray stages outside the vocabulary go last, in input order.
	for _, s := range stages {
		if n, ok := counts[s]; ok {
			g.Stages = append(g.Stages, s)
			g.Counts = append(g.Counts, n)
			delete(counts, s)
		}
	}
	return g
}

// detailLine formats one claim for the cell's hover text.
func detailLine(c *model.Claim) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", c.Title, c.Stage)
	if c.Claimant != "" {
		fmt.Fprintf(&b, ", claimant: %s", c.Claimant)
	}
	if len(c.Reviewers) > 0 {
		fmt.Fprintf(&b, ", reviewers: %s", strings.Join(c.Reviewers, ", "))
	}
	return b.String()
}

// Aggregate groups located claims by cell and summarizes each group.
// Unlocated claims are ignored. Rows come out sorted by (CellX, CellY);
// within a cell, detail lines are ordered by stage vocabulary position,
// ties keeping input order.
func Aggregate(claims []*model.Claim) []model.AggregatedCell {
	var located []*model.Claim
	for _, c := range claims {
		if c.Located() {
			located = append(located, c)
		}
	}
	// Stable so claims at the same stage keep their scrape order. Stray
	// stages outside the vocabulary sort last.
	sort.SliceStable(located, func(i, j int) bool {
		return stageRank(located[i].Stage) < stageRank(located[j].Stage)
	})

	type cellKey struct{ x, y int }
	var order []cellKey
	groups := make(map[cellKey][]*model.Claim)
	for _, c := range located {
		k := cellKey{*c.CellX, *c.CellY}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].x != order[j].x {
			return order[i].x < order[j].x
		}
		return order[i].y < order[j].y
	})

	cells := make([]model.AggregatedCell, 0, len(order))
	for _, k := range order {
		group := groups[k]

		stages := make([]model.Stage, len(group))
		lines := make([]string, len(group))
		for i, c := range group {
			stages[i] = c.Stage
			lines[i] = detailLine(c)
		}

		cells = append(cells, model.AggregatedCell{
			CellX:     k.x,
			CellY:     k.y,
			Count:     len(group),
			Details:   strings.Join(lines, "\n"),
			StageMean: StageMean(stages),
			Groups:    StageCounts(stages),
			MapSize:   math.Log(float64(len(group))+1) * 30,
		})
	}
	return cells
}
