package contractModel

import "testing"

func TestSeverityOrdering(t *testing.T) {
	order := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%s should rank above %s", order[i], order[i-1])
		}
	}
}

func TestParseHelpers(t *testing.T) {
	if ParseSeverity("catastrophic") != SeverityMedium {
		t.Error("unknown severity should map to medium")
	}
	if ParseSeverity("critical") != SeverityCritical {
		t.Error("known severity should round trip")
	}
	if ParseCategory("data_privacy") != CategoryOther {
		t.Error("unknown category should map to other")
	}
	if ParseCategory("broad_indemnity") != CategoryBroadIndemnity {
		t.Error("known category should round trip")
	}
}

func TestExtractionStats_SuccessRate(t *testing.T) {
	s := ExtractionStats{Total: 4, ByMethod: map[ExtractionMethod]int{MethodModel: 3, MethodFallback: 1}}
	if s.SuccessRate() != 0.75 {
		t.Errorf("got %v", s.SuccessRate())
	}
	if (ExtractionStats{}).SuccessRate() != 0 {
		t.Error("empty stats should be zero")
	}
}
