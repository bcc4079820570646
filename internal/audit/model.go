package audit

import (
	"context"
	"strings"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/internal/rag/llm"
)

const auditPrompt = `Analyze the following contract for potential risks.

Identify risks in these categories:
1. auto_renewal: auto-renewal with an inadequate notice period (under 30 days)
2. unlimited_liability: unlimited or uncapped liability
3. broad_indemnity: overly broad indemnification
4. termination_imbalance: one-sided termination rights
5. unfavorable_payment: unfavorable payment terms
6. weak_confidentiality: weak confidentiality protections
Use "other" for any other material risk.

Respond with a JSON object {"findings": [...]} where each finding has:
- risk_type: one of the category names above
- severity: low, medium, high or critical
- title: brief title
- description: concise explanation
- evidence: exact text copied from the contract, up to 200 characters
- recommendation: mitigation suggestion

Return {"findings": []} when there are no risks.`

var findingsSchema = llm.MustCompileSchema("audit_findings.json", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"findings": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"risk_type":      map[string]any{"type": "string"},
					"severity":       map[string]any{"type": "string"},
					"title":          map[string]any{"type": "string"},
					"description":    map[string]any{"type": "string"},
					"evidence":       map[string]any{"type": "string"},
					"recommendation": map[string]any{"type": []any{"string", "null"}},
				},
				"required": []any{"risk_type", "severity", "title", "description", "evidence"},
			},
		},
	},
	"required": []any{"findings"},
})

type modelFinding struct {
	RiskType       string  `json:"risk_type"`
	Severity       string  `json:"severity"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Evidence       string  `json:"evidence"`
	Recommendation *string `json:"recommendation"`
}

type modelDetector struct {
	llm      llm.Provider
	maxChars int
}

func (d modelDetector) detect(ctx context.Context, text documentModel.Text) ([]contractModel.Finding, error) {
	raw, err := d.llm.Complete(ctx, llm.Request{
		System:      auditPrompt,
		Prompt:      "Analyze this contract:\n\n" + documentModel.Truncate(text.Body, d.maxChars),
		Temperature: config.AuditTemperature,
		JSON:        true,
		Timeout:     config.LLMTimeout,
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Findings []modelFinding `json:"findings"`
	}
	if err := findingsSchema.Decode(raw, &parsed); err != nil {
		return nil, err
	}

	out := make([]contractModel.Finding, 0, len(parsed.Findings))
	for _, m := range parsed.Findings {
		f := contractModel.Finding{
			Category:        contractModel.ParseCategory(strings.ToLower(strings.TrimSpace(m.RiskType))),
			Severity:        contractModel.ParseSeverity(strings.ToLower(strings.TrimSpace(m.Severity))),
			Title:           m.Title,
			Description:     m.Description,
			Evidence:        locate(text, m.Evidence),
			DetectionMethod: contractModel.DetectedByModel,
		}
		if m.Recommendation != nil {
			f.Recommendation = *m.Recommendation
		}
		out = append(out, f)
	}
	return out, nil
}
