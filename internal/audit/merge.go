package audit

import (
	"sort"
	"strings"

	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
)

// MergeFindings folds model findings into rule findings. A pair is a duplicate
// when the category matches and the evidence is contained in the other or their
// overlap ratio reaches ratio. Duplicates become one finding detected by both.
// Neither input is modified.
func MergeFindings(rule []contractModel.Finding, model []contractModel.Finding, ratio float64) []contractModel.Finding {
	out := make([]contractModel.Finding, 0, len(rule)+len(model))
	for _, f := range rule {
		if f.DetectionMethod == "" {
			f.DetectionMethod = contractModel.DetectedByRule
		}
		out = append(out, f)
	}

	merged := make([]bool, len(rule))
	for _, m := range model {
		if m.DetectionMethod == "" {
			m.DetectionMethod = contractModel.DetectedByModel
		}
		matched := false
		for i := range rule {
			if merged[i] || !duplicates(out[i], m, ratio) {
				continue
			}
			out[i] = combine(out[i], m)
			merged[i] = true
			matched = true
			break
		}
		if !matched {
			out = append(out, m)
		}
	}
	return out
}

func duplicates(a, b contractModel.Finding, ratio float64) bool {
	if a.Category != b.Category {
		return false
	}
	if r, ok := spanOverlap(a.Evidence, b.Evidence); ok {
		return r >= ratio
	}
	x, y := normalise(a.Evidence.Text), normalise(b.Evidence.Text)
	if x == "" || y == "" {
		return false
	}
	if strings.Contains(x, y) || strings.Contains(y, x) {
		return true
	}
	return OverlapRatio(x, y) >= ratio
}

// spanOverlap compares located evidence by position. ok is false unless both
// spans carry offsets on the same page.
func spanOverlap(a, b contractModel.Evidence) (float64, bool) {
	if a.CharStart == nil || a.CharEnd == nil || b.CharStart == nil || b.CharEnd == nil {
		return 0, false
	}
	if a.PageNumber == nil || b.PageNumber == nil || *a.PageNumber != *b.PageNumber {
		return 0, false
	}
	lo := max(*a.CharStart, *b.CharStart)
	hi := min(*a.CharEnd, *b.CharEnd)
	shorter := min(*a.CharEnd-*a.CharStart, *b.CharEnd-*b.CharStart)
	if shorter <= 0 {
		return 0, false
	}
	if hi <= lo {
		return 0, true
	}
	// containment of one span in the other
	if hi-lo == shorter {
		return 1, true
	}
	return float64(hi-lo) / float64(shorter), true
}

// OverlapRatio is the longest common substring of a and b over the length of the shorter one.
func OverlapRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	longest := 0
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				cur[j] = prev[j-1] + 1
				longest = max(longest, cur[j])
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return float64(longest) / float64(min(len(ra), len(rb)))
}

func combine(r, m contractModel.Finding) contractModel.Finding {
	out := r
	out.DetectionMethod = contractModel.DetectedByBoth
	if m.Severity.Rank() > out.Severity.Rank() {
		out.Severity = m.Severity
	}
	if len(m.Description) > len(out.Description) {
		out.Description = m.Description
	}
	if len(m.Evidence.Text) > len(out.Evidence.Text) {
		out.Evidence = m.Evidence
	}
	if out.Recommendation == "" {
		out.Recommendation = m.Recommendation
	}
	return out
}

func normalise(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// SortFindings orders by severity (highest first), then category, then title.
func SortFindings(findings []contractModel.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Title < b.Title
	})
}
