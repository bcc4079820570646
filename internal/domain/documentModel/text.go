package documentModel

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const pageSeparator = "\n\n"

// Text is a document's pages joined in order, keeping where each page starts.
type Text struct {
	Body    string
	starts  []int
	numbers []int
}

func JoinPages(pages []Page) Text {
	var b strings.Builder
	t := Text{starts: make([]int, 0, len(pages)), numbers: make([]int, 0, len(pages))}
	for i, p := range pages {
		if i > 0 {
			b.WriteString(pageSeparator)
		}
		t.starts = append(t.starts, b.Len())
		t.numbers = append(t.numbers, p.PageNumber)
		b.WriteString(p.Text)
	}
	t.Body = b.String()
	return t
}

// Locate maps an offset in Body to a page number and the offset within that page.
func (t Text) Locate(offset int) (pageNumber int, pageOffset int) {
	if len(t.starts) == 0 {
		return 0, offset
	}
	i := sort.Search(len(t.starts), func(i int) bool { return t.starts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return t.numbers[i], offset - t.starts[i]
}

// Page resolves offset to the page holding it, returning the page number and the
// page's [start, end) range in Body. Offsets inside a separator belong to the next page.
func (t Text) Page(offset int) (pageNumber, start, end int) {
	if len(t.starts) == 0 {
		return 0, 0, len(t.Body)
	}
	i := sort.Search(len(t.starts), func(i int) bool { return t.starts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	if i+1 < len(t.starts) && offset >= t.starts[i+1]-len(pageSeparator) {
		i++
	}
	end = len(t.Body)
	if i+1 < len(t.starts) {
		end = t.starts[i+1] - len(pageSeparator)
	}
	return t.numbers[i], t.starts[i], end
}

// Truncate cuts s to at most max bytes without splitting a rune.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
