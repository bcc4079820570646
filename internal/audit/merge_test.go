package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
)

func finding(cat contractModel.Category, sev contractModel.Severity, desc, evidence string, by contractModel.DetectionMethod) contractModel.Finding {
	return contractModel.Finding{
		Category: cat, Severity: sev, Title: string(cat), Description: desc,
		Evidence: contractModel.Evidence{Text: evidence}, DetectionMethod: by,
	}
}

func intp(v int) *int { return &v }

func TestMergeFindings(t *testing.T) {
	renewalRule := finding(contractModel.CategoryAutoRenewal, contractModel.SeverityHigh, "short",
		"renews automatically unless notice is given 10 days before", contractModel.DetectedByRule)

	tests := []struct {
		name       string
		rule       []contractModel.Finding
		model      []contractModel.Finding
		wantLen    int
		wantMethod []contractModel.DetectionMethod
	}{
		{
			name: "overlapping evidence merges",
			rule: []contractModel.Finding{renewalRule},
			model: []contractModel.Finding{finding(contractModel.CategoryAutoRenewal, contractModel.SeverityMedium,
				"The agreement auto-renews with a notice window that is far too short.",
				"This Agreement renews automatically unless notice is given 10 days before the end of the term.", contractModel.DetectedByModel)},
			wantLen:    1,
			wantMethod: []contractModel.DetectionMethod{contractModel.DetectedByBoth},
		},
		{
			name: "disjoint evidence is kept apart",
			rule: []contractModel.Finding{renewalRule},
			model: []contractModel.Finding{finding(contractModel.CategoryAutoRenewal, contractModel.SeverityHigh, "other clause",
				"Subscription fees increase by 20% on each anniversary", contractModel.DetectedByModel)},
			wantLen:    2,
			wantMethod: []contractModel.DetectionMethod{contractModel.DetectedByRule, contractModel.DetectedByModel},
		},
		{
			name: "same evidence different category is kept apart",
			rule: []contractModel.Finding{renewalRule},
			model: []contractModel.Finding{finding(contractModel.CategoryTerminationImbalance, contractModel.SeverityMedium, "x",
				renewalRule.Evidence.Text, contractModel.DetectedByModel)},
			wantLen:    2,
			wantMethod: []contractModel.DetectionMethod{contractModel.DetectedByRule, contractModel.DetectedByModel},
		},
		{
			name:       "empty inputs",
			wantLen:    0,
			wantMethod: []contractModel.DetectionMethod{},
		},
		{
			name: "one rule finding absorbs only one model finding",
			rule: []contractModel.Finding{renewalRule},
			model: []contractModel.Finding{
				finding(contractModel.CategoryAutoRenewal, contractModel.SeverityHigh, "a", renewalRule.Evidence.Text, contractModel.DetectedByModel),
				finding(contractModel.CategoryAutoRenewal, contractModel.SeverityHigh, "b", renewalRule.Evidence.Text, contractModel.DetectedByModel),
			},
			wantLen:    2,
			wantMethod: []contractModel.DetectionMethod{contractModel.DetectedByBoth, contractModel.DetectedByModel},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeFindings(tt.rule, tt.model, 0.5)
			require.Len(t, got, tt.wantLen)
			methods := make([]contractModel.DetectionMethod, len(got))
			for i, f := range got {
				methods[i] = f.DetectionMethod
			}
			assert.Equal(t, tt.wantMethod, methods)
		})
	}
}

func TestMergeFindings_KeepsMoreDetail(t *testing.T) {
	rule := finding(contractModel.CategoryUnlimitedLiability, contractModel.SeverityCritical, "Contract contains unlimited liability provisions.",
		"unlimited liability", contractModel.DetectedByRule)
	rule.RuleMatched = "unlimited_liability_pattern"
	model := finding(contractModel.CategoryUnlimitedLiability, contractModel.SeverityHigh, "Supplier accepts unlimited liability for all damages, including indirect losses.",
		"Supplier shall have unlimited liability for any breach", contractModel.DetectedByModel)

	got := MergeFindings([]contractModel.Finding{rule}, []contractModel.Finding{model}, 0.5)
	require.Len(t, got, 1)
	assert.Equal(t, contractModel.DetectedByBoth, got[0].DetectionMethod)
	assert.Equal(t, model.Description, got[0].Description)
	assert.Equal(t, model.Evidence.Text, got[0].Evidence.Text)
	assert.Equal(t, contractModel.SeverityCritical, got[0].Severity, "the higher severity wins")
	assert.Equal(t, "unlimited_liability_pattern", got[0].RuleMatched)

	// inputs are untouched
	assert.Equal(t, contractModel.DetectedByRule, rule.DetectionMethod)
}

func TestMergeFindings_LocatedSpans(t *testing.T) {
	a := finding(contractModel.CategoryBroadIndemnity, contractModel.SeverityHigh, "a", "text one", contractModel.DetectedByRule)
	a.Evidence.CharStart, a.Evidence.CharEnd, a.Evidence.PageNumber = intp(100), intp(300), intp(2)
	b := finding(contractModel.CategoryBroadIndemnity, contractModel.SeverityHigh, "b", "completely different words", contractModel.DetectedByModel)
	b.Evidence.CharStart, b.Evidence.CharEnd, b.Evidence.PageNumber = intp(180), intp(260), intp(2)

	assert.Len(t, MergeFindings([]contractModel.Finding{a}, []contractModel.Finding{b}, 0.5), 1, "b lies inside a")

	b.Evidence.PageNumber = intp(3)
	assert.Len(t, MergeFindings([]contractModel.Finding{a}, []contractModel.Finding{b}, 0.5), 2, "different pages never overlap by position")
}

func TestOverlapRatio(t *testing.T) {
	assert.InDelta(t, 1.0, OverlapRatio("abc", "xxabcxx"), 1e-9)
	assert.InDelta(t, 0.0, OverlapRatio("abc", "xyz"), 1e-9)
	assert.InDelta(t, 0.5, OverlapRatio("abcd", "cdef"), 1e-9)
	assert.Zero(t, OverlapRatio("", "abc"))
}

func TestSortFindings(t *testing.T) {
	findings := []contractModel.Finding{
		{Category: contractModel.CategoryWeakConfidentiality, Severity: contractModel.SeverityMedium, Title: "b"},
		{Category: contractModel.CategoryUnlimitedLiability, Severity: contractModel.SeverityCritical, Title: "z"},
		{Category: contractModel.CategoryUnfavorablePayment, Severity: contractModel.SeverityMedium, Title: "a"},
		{Category: contractModel.CategoryUnfavorablePayment, Severity: contractModel.SeverityMedium, Title: "0"},
		{Category: contractModel.CategoryAutoRenewal, Severity: contractModel.SeverityHigh, Title: "m"},
	}
	SortFindings(findings)

	var got []string
	for _, f := range findings {
		got = append(got, string(f.Category)+"/"+f.Title)
	}
	assert.Equal(t, []string{
		"unlimited_liability/z",
		"auto_renewal/m",
		"unfavorable_payment/0",
		"unfavorable_payment/a",
		"weak_confidentiality/b",
	}, got)
}
