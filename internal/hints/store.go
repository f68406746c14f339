// Package hints persists learned coordinate associations: a key (claim
// URL, or a case-insensitive title substring) mapped to a grid cell.
// Stores are loaded whole at the start of a resolution pass and rewritten
// whole when new entries are learned. There is no locking; concurrent
// passes against the same files must be serialized by the caller.
package hints

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/trmodding/claimatlas/internal/model"
)

// Cell is a hinted coordinate pair, serialized as a two-element array.
type Cell struct {
	X int
	Y int
}

// Store is an ordered key→cell mapping backed by a JSON object file.
// Iteration order is file order with appended entries last; the resolver
// relies on that order being stable, since a later matching hint
// deliberately overwrites an earlier one for the same claim.
type Store struct {
	path  string
	keys  []string
	cells map[string]Cell
}

// Load reads the store at path. A missing or corrupt file yields an
// empty store: the first run bootstraps the database.
func Load(path string) *Store {
	s := &Store{path: path, cells: make(map[string]Cell)}

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	if err := s.decode(data); err != nil {
		// Corrupt database: start over rather than fail the pass.
		s.keys = nil
		s.cells = make(map[string]Cell)
	}
	return s
}

// decode parses a JSON object of key→[x,y] pairs, preserving key order.
// A plain map would randomize iteration and break determinism.
func (s *Store) decode(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("hint store: expected JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("hint store: non-string key %v", tok)
		}
		var xy [2]int
		if err := dec.Decode(&xy); err != nil {
			return err
		}
		if _, dup := s.cells[key]; !dup {
			s.keys = append(s.keys, key)
		}
		s.cells[key] = Cell{X: xy[0], Y: xy[1]}
	}
	return nil
}

// Save rewrites the whole store to its file, in iteration order. No
// partial or append writes.
func (s *Store) Save() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create hints dir: %w", err)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, key := range s.keys {
		k, err := json.Marshal(key)
		if err != nil {
			return fmt.Errorf("encode hint key: %w", err)
		}
		cell := s.cells[key]
		fmt.Fprintf(&buf, "  %s: [%d, %d]", k, cell.X, cell.Y)
		if i < len(s.keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")

	if err := os.WriteFile(s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write hint store: %w", err)
	}
	return nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.keys) }

// Keys returns the keys in iteration order.
func (s *Store) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	_, ok := s.cells[key]
	return ok
}

// Lookup returns the cell for an exact key.
func (s *Store) Lookup(key string) (Cell, bool) {
	c, ok := s.cells[key]
	return c, ok
}

// Add upserts an entry. New keys append to the end of the iteration
// order; existing keys keep their position.
func (s *Store) Add(key string, x, y int) {
	if _, ok := s.cells[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.cells[key] = Cell{X: x, Y: y}
}

// ApplyURL assigns hinted coordinates to every claim whose URL is a key,
// overriding any prior value. URL hints are authoritative one-off
// corrections. Returns the number of claims modified.
func (s *Store) ApplyURL(claims []*model.Claim) int {
	modified := 0
	for _, key := range s.keys {
		cell := s.cells[key]
		for _, c := range claims {
			if c.URL == key {
				c.SetCell(cell.X, cell.Y)
				modified++
			}
		}
	}
	return modified
}

// ApplyTitle assigns hinted coordinates to claims whose title contains
// the key, case-insensitively, but only to claims still missing
// coordinates. Substring matches are heuristic and must never override a
// better-known value. Hints apply in iteration order, so a later
// matching hint wins for a claim matched twice. Returns the number of
// claims modified.
func (s *Store) ApplyTitle(claims []*model.Claim) int {
	located := make(map[*model.Claim]bool)
	for _, c := range claims {
		located[c] = c.Located()
	}

	modified := 0
	for _, key := range s.keys {
		cell := s.cells[key]
		needle := strings.ToLower(key)
		for _, c := range claims {
			if located[c] {
				continue
			}
			if strings.Contains(strings.ToLower(c.Title), needle) {
				if !c.Located() {
					modified++
				}
				c.SetCell(cell.X, cell.Y)
			}
		}
	}
	return modified
}
