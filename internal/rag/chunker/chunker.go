// Package chunker splits page text into overlapping spans sized for embedding.
//
// Offsets are byte offsets into the UTF-8 page text and always fall on rune
// boundaries, so text[CharStart:CharEnd] is the chunk text.
package chunker

import (
	"iter"
	"strings"
	"unicode/utf8"
)

// separators ordered from "best" to "worst" for semantic meaning
var separators = []string{"\n\n", "\n", ". ", " "}

type Span struct {
	PageNumber int
	CharStart  int
	CharEnd    int
	Text       string
}

type Chunker struct {
	size    int
	overlap int
}

// New clamps bad input: size defaults to 3200, overlap must stay below size.
func New(size int, overlap int) Chunker {
	if size <= 0 {
		size = 3200
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 8
	}
	return Chunker{size: size, overlap: overlap}
}

func (c Chunker) Size() int    { return c.size }
func (c Chunker) Overlap() int { return c.overlap }

// Chunk lazily yields the spans of one page. The sequence is finite and can be ranged over again.
func (c Chunker) Chunk(text string, pageNumber int) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		n := len(text)
		start := 0
		for start < n {
			end := start + c.size
			if end >= n {
				end = n
			} else {
				end = c.boundary(text, start, end)
			}

			if !yield(Span{PageNumber: pageNumber, CharStart: start, CharEnd: end, Text: text[start:end]}) {
				return
			}
			if end == n {
				return
			}
			start = c.nextStart(text, start, end)
		}
	}
}

// Spans collects Chunk into a slice.
func (c Chunker) Spans(text string, pageNumber int) []Span {
	var out []Span
	for s := range c.Chunk(text, pageNumber) {
		out = append(out, s)
	}
	return out
}

// boundary picks the cut point in (start, hardEnd]. It prefers the best separator
// in the back half of the window and falls back to a rune-aligned hard cut.
func (c Chunker) boundary(text string, start int, hardEnd int) int {
	minEnd := start + c.size/2
	window := text[minEnd:hardEnd]
	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx >= 0 {
			return minEnd + idx + len(sep)
		}
	}
	end := hardEnd
	for end > start+1 && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}

// nextStart steps back by the overlap, then forward to the next word start within half the overlap.
func (c Chunker) nextStart(text string, start int, end int) int {
	next := end - c.overlap
	if c.overlap == 0 || next <= start {
		return end
	}

	limit := next + c.overlap/2
	if limit > end {
		limit = end
	}
	if idx := strings.IndexAny(text[next:limit], " \n"); idx >= 0 {
		next += idx + 1
	}
	for next < end && !utf8.RuneStart(text[next]) {
		next++
	}
	if next >= end || next <= start {
		return end
	}
	return next
}
