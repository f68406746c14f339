// Package extract parses grid-cell coordinate pairs out of noisy text:
// claim descriptions written by hand, and text recognized off claim
// screenshots.
package extract

import (
	"regexp"
	"strconv"

	"github.com/dlclark/regexp2"
)

// DefaultCellPattern matches a signed integer, a comma or whitespace-run
// separator, and a second signed integer. The negative lookahead rejects
// a candidate immediately followed by a third number, so "coords 5, 6, 7"
// resolves to (6,7) instead of greedily taking (5,6) out of a list, while
// "Cells 12, -7 and 8" still yields (12,-7). RE2 cannot express the
// lookahead, hence regexp2.
const DefaultCellPattern = `(-?\d+)(?:,|\s)\s*(-?\d+)(?!,?\s?\d)`

// DefaultOCRPattern is the looser pattern for recognized image text:
// comma, period or space separators, or a lone minus gluing the halves
// together ("12-34"), each half independently signed. Exactly one of the
// second and third groups captures.
const DefaultOCRPattern = `(-?\d+)(?:(?:[,.]+|\s)\s?(-?\d+)|(-\d+))`

// Extractor finds the first coordinate pair in a text block. The pattern
// is tunable configuration; see DefaultCellPattern for the default.
type Extractor struct {
	re *regexp2.Regexp
}

// NewExtractor compiles pattern into an Extractor. The pattern must
// expose the two coordinates as capture groups 1 and 2.
func NewExtractor(pattern string) (*Extractor, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, err
	}
	return &Extractor{re: re}, nil
}

// NewDefaultExtractor returns an Extractor using DefaultCellPattern.
func NewDefaultExtractor() *Extractor {
	e, err := NewExtractor(DefaultCellPattern)
	if err != nil {
		panic(err) // the default pattern always compiles
	}
	return e
}

// Coords returns the first coordinate pair found in text. The first
// surviving match wins; no attempt is made to disambiguate multiple
// coordinate-like substrings.
func (e *Extractor) Coords(text string) (int, int, bool) {
	m, err := e.re.FindStringMatch(text)
	if err != nil || m == nil {
		return 0, 0, false
	}
	x, errX := strconv.Atoi(m.GroupByNumber(1).String())
	y, errY := strconv.Atoi(m.GroupByNumber(2).String())
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return x, y, true
}

var ocrRe = regexp.MustCompile(DefaultOCRPattern)

// OCRCoords parses a coordinate pair out of OCR output. The second
// coordinate comes from whichever of the two alternative groups matched.
func OCRCoords(text string) (int, int, bool) {
	m := ocrRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	second := m[2]
	if second == "" {
		second = m[3]
	}
	x, errX := strconv.Atoi(m[1])
	y, errY := strconv.Atoi(second)
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return x, y, true
}
