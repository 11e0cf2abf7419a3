// Package textsplit cuts long text into bounded, overlapping chunks for
// independent summarization.
//
// Sizes are counted in characters (runes), not bytes. A chunk boundary is
// placed at the latest separator that still leaves the chunk at least half
// full, trying separators in priority order, then any whitespace, then a hard
// cut. Each following chunk starts between overlap and 2*overlap characters
// before the previous chunk ended, aligned to a line or word start when one
// is available, so consecutive chunks always share at least overlap
// characters and never exceed size.
package textsplit

import (
	"fmt"
	"strings"
	"unicode"
)

// Defaults used by the summarizer.
const (
	DefaultChunkSize    = 4000
	DefaultChunkOverlap = 100
)

// DefaultSeparators prefers paragraph breaks, then line breaks.
var DefaultSeparators = []string{"\n\n", "\n"}

// Span is a chunk's [Start, End) range in rune offsets of the source text.
type Span struct {
	Start int
	End   int
}

// Len returns the chunk length in runes.
func (s Span) Len() int { return s.End - s.Start }

// Splitter splits text recursively on an ordered list of separators.
type Splitter struct {
	size       int
	overlap    int
	minCut     int
	maxOverlap int
	separators [][]rune
}

// New returns a Splitter producing chunks of at most size runes sharing at
// least overlap runes. overlap must be smaller than half of size.
func New(size, overlap int, separators ...string) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	minCut := max(size/2, 1)
	if overlap > 0 && overlap >= minCut {
		return nil, fmt.Errorf("chunk overlap %d must be less than half of chunk size %d", overlap, size)
	}

	seps := make([][]rune, 0, len(separators))
	for _, sep := range separators {
		if sep != "" {
			seps = append(seps, []rune(sep))
		}
	}
	return &Splitter{
		size:       size,
		overlap:    overlap,
		minCut:     minCut,
		maxOverlap: min(2*overlap, minCut-1),
		separators: seps,
	}, nil
}

// NewDefault returns the 4000/100 splitter on paragraph and line breaks.
func NewDefault() *Splitter {
	s, err := New(DefaultChunkSize, DefaultChunkOverlap, DefaultSeparators...)
	if err != nil {
		panic(err)
	}
	return s
}

// Size returns the maximum chunk length in runes.
func (s *Splitter) Size() int { return s.size }

// Overlap returns the minimum number of runes consecutive chunks share.
func (s *Splitter) Overlap() int { return s.overlap }

// Split returns the chunks of text in source order. Text that is empty or
// only whitespace yields no chunks.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	spans := s.spans(runes)
	chunks := make([]string, len(spans))
	for i, sp := range spans {
		chunks[i] = string(runes[sp.Start:sp.End])
	}
	return chunks
}

// Spans returns the rune ranges Split would cut text into.
func (s *Splitter) Spans(text string) []Span {
	return s.spans([]rune(text))
}

func (s *Splitter) spans(runes []rune) []Span {
	if strings.TrimSpace(string(runes)) == "" {
		return nil
	}
	n := len(runes)

	var spans []Span
	start := 0
	for {
		limit := start + s.size
		if limit >= n {
			return append(spans, Span{Start: start, End: n})
		}
		end := s.cut(runes, start, limit)
		spans = append(spans, Span{Start: start, End: end})
		start = s.nextStart(runes, end)
	}
}

// cut picks the end of the chunk starting at start. The result lies in
// [start+minCut, limit].
func (s *Splitter) cut(runes []rune, start, limit int) int {
	lo := start + s.minCut
	for _, sep := range s.separators {
		if e := lastBoundary(runes, sep, lo, limit); e >= 0 {
			return e
		}
	}
	if e := lastSpace(runes, lo, limit); e >= 0 {
		return e
	}
	return limit
}

// nextStart picks where the chunk after one ending at end begins. The result
// lies in [end-maxOverlap, end-overlap].
func (s *Splitter) nextStart(runes []rune, end int) int {
	if s.overlap == 0 {
		return end
	}
	lo, hi := end-s.maxOverlap, end-s.overlap
	for _, sep := range s.separators {
		if p := lastBoundary(runes, sep, lo, hi); p >= 0 {
			return p
		}
	}
	if p := lastSpace(runes, lo, hi); p >= 0 {
		return p
	}
	return hi
}

// lastBoundary returns the largest e in [lo, hi] such that sep ends right
// before e, or -1.
func lastBoundary(runes, sep []rune, lo, hi int) int {
	for e := hi; e >= lo; e-- {
		if e < len(sep) {
			break
		}
		if hasSuffixAt(runes, sep, e) {
			return e
		}
	}
	return -1
}

func hasSuffixAt(runes, sep []rune, e int) bool {
	for i := range sep {
		if runes[e-len(sep)+i] != sep[i] {
			return false
		}
	}
	return true
}

// lastSpace returns the largest e in [lo, hi] that follows a whitespace rune, or -1.
func lastSpace(runes []rune, lo, hi int) int {
	for e := hi; e >= lo && e > 0; e-- {
		if unicode.IsSpace(runes[e-1]) {
			return e
		}
	}
	return -1
}
