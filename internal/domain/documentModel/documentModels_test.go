package documentModel

import (
	"testing"

	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusFailed, StatusProcessing, true},
		{StatusProcessing, StatusProcessing, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusCompleted, StatusFailed, false},
		{StatusPending, StatusCompleted, false},
		{StatusFailed, StatusCompleted, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v; want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTransition(t *testing.T) {
	doc := &Document{Id: "doc-1", Status: StatusPending}
	if err := Transition(doc, StatusProcessing); err != nil {
		t.Fatalf("pending -> processing failed: %v", err)
	}
	err := Transition(doc, StatusProcessing)
	if !apperr.Is(err, apperr.KindDocumentState) {
		t.Errorf("processing -> processing should be a document state error, got %v", err)
	}
	if doc.Status != StatusProcessing {
		t.Errorf("rejected transition must not mutate status, got %s", doc.Status)
	}
}

func TestSourcesFor(t *testing.T) {
	got := SourcesFor(StatusProcessing)
	if len(got) != 2 || got[0] != StatusPending || got[1] != StatusFailed {
		t.Errorf("SourcesFor(processing) = %v", got)
	}
	if len(SourcesFor(StatusPending)) != 0 {
		t.Error("nothing may move back to pending")
	}
}

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("%PDF-1.4 same bytes"))
	b := ContentHash([]byte("%PDF-1.4 same bytes"))
	c := ContentHash([]byte("%PDF-1.4 other bytes"))
	if a != b {
		t.Error("identical bytes must hash identically")
	}
	if a == c {
		t.Error("different bytes must hash differently")
	}
	if len(a) != 64 {
		t.Errorf("expected hex sha256, got length %d", len(a))
	}
}

func TestJoinPages_Locate(t *testing.T) {
	text := JoinPages([]Page{
		{PageNumber: 1, Text: "First page."},
		{PageNumber: 2, Text: "Second page."},
	})
	if text.Body != "First page.\n\nSecond page." {
		t.Fatalf("body got %q", text.Body)
	}

	tests := []struct {
		offset     int
		wantPage   int
		wantOffset int
	}{
		{0, 1, 0},
		{6, 1, 6},
		{13, 2, 0},
		{20, 2, 7},
	}
	for _, tt := range tests {
		page, off := text.Locate(tt.offset)
		if page != tt.wantPage || off != tt.wantOffset {
			t.Errorf("Locate(%d) = (%d, %d), want (%d, %d)", tt.offset, page, off, tt.wantPage, tt.wantOffset)
		}
	}
}

func TestJoinPages_Page(t *testing.T) {
	text := JoinPages([]Page{
		{PageNumber: 1, Text: "First page."},
		{PageNumber: 2, Text: "Second page."},
		{PageNumber: 3, Text: "Third."},
	})

	tests := []struct {
		name      string
		offset    int
		wantPage  int
		wantStart int
		wantEnd   int
	}{
		{"start of first page", 0, 1, 0, 11},
		{"last byte of first page", 10, 1, 0, 11},
		{"inside separator", 11, 2, 13, 25},
		{"second separator byte", 12, 2, 13, 25},
		{"middle page", 20, 2, 13, 25},
		{"last page runs to the end", 27, 3, 27, 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, start, end := text.Page(tt.offset)
			if page != tt.wantPage || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("Page(%d) = (%d, %d, %d), want (%d, %d, %d)", tt.offset, page, start, end, tt.wantPage, tt.wantStart, tt.wantEnd)
			}
		})
	}
	if _, start, end := text.Page(13); text.Body[start:end] != "Second page." {
		t.Errorf("bounds cut %q", text.Body[start:end])
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo", 2); got != "h" {
		t.Errorf("got %q, rune must not be split", got)
	}
	if got := Truncate("short", 100); got != "short" {
		t.Errorf("got %q", got)
	}
}
