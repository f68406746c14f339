package model

// Claim represents one content-development task scraped from the wiki's
// claim tables. CellX and CellY are pointers because a freshly scraped
// claim usually has no resolved location yet; they are either both set
// or both nil, never one without the other.
type Claim struct {
	Title       string   `json:"title"`
	Stage       Stage    `json:"stage"`
	Description string   `json:"description,omitempty"`
	Claimant    string   `json:"claimant,omitempty"`
	Reviewers   []string `json:"reviewers,omitempty"`
	CellX       *int     `json:"cell_x,omitempty"`
	CellY       *int     `json:"cell_y,omitempty"`
	LastUpdate  string   `json:"last_update,omitempty"`
	URL         string   `json:"url"` // unique identifier
	ImageURL    string   `json:"image_url,omitempty"`
}

// Located reports whether the claim has a resolved grid cell.
func (c *Claim) Located() bool {
	return c.CellX != nil && c.CellY != nil
}

// SetCell assigns both coordinates at once, preserving the invariant
// that they are never set individually.
func (c *Claim) SetCell(x, y int) {
	c.CellX = &x
	c.CellY = &y
}

// Cell returns the resolved coordinates. Only valid when Located.
func (c *Claim) Cell() (int, int) {
	return *c.CellX, *c.CellY
}
