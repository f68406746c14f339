package model

// StageGroups lists the distinct stages present in a cell with their
// counts. Stages are ordered by the fixed vocabulary, not by frequency,
// so downstream renderers can stack them consistently.
type StageGroups struct {
	Stages []Stage `json:"stages"`
	Counts []int   `json:"counts"`
}

// AggregatedCell is one renderer-ready row: all located claims sharing a
// grid cell, summarized. Computed fresh each run, never persisted.
type AggregatedCell struct {
	CellX     int         `json:"cell_x"`
	CellY     int         `json:"cell_y"`
	Count     int         `json:"count"`
	Details   string      `json:"details"` // newline-joined per-claim one-liners
	StageMean Stage       `json:"stage_mean"`
	Groups    StageGroups `json:"stage_groups"`
	MapSize   float64     `json:"map_size"` // display scaling only, not a domain quantity
}
