package extraction

import "github.com/akolanti/ContractIntelAPI/internal/rag/llm"

func nullable(t string) map[string]any {
	return map[string]any{"type": []any{t, "null"}}
}

var fieldsSchema = llm.MustCompileSchema("contract_fields.json", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"parties":        map[string]any{"type": []any{"array", "null"}, "items": map[string]any{"type": "string"}},
		"effective_date": nullable("string"),
		"term":           nullable("string"),
		"governing_law":  nullable("string"),
		"payment_terms":  nullable("string"),
		"termination":    nullable("string"),
		"auto_renewal": map[string]any{
			"type": []any{"object", "null"},
			"properties": map[string]any{
				"enabled":     nullable("boolean"),
				"notice_days": nullable("integer"),
				"terms":       nullable("string"),
			},
		},
		"confidentiality": nullable("string"),
		"indemnity":       nullable("string"),
		"liability_cap": map[string]any{
			"type": []any{"object", "null"},
			"properties": map[string]any{
				"amount":   nullable("number"),
				"currency": nullable("string"),
			},
		},
		"signatories": map[string]any{
			"type": []any{"array", "null"},
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":  map[string]any{"type": "string"},
					"title": nullable("string"),
				},
				"required": []any{"name"},
			},
		},
	},
})

const systemPrompt = `You are a legal contract analyst. Extract the following fields from the contract:

- parties: array of company or entity names that are parties to the agreement
- effective_date: effective date in ISO format (YYYY-MM-DD)
- term: contract duration
- governing_law: jurisdiction governing the contract
- payment_terms: payment schedule and amounts
- termination: termination conditions
- auto_renewal: object with enabled (boolean), notice_days (integer) and terms
- confidentiality: key confidentiality obligations
- indemnity: indemnification scope
- liability_cap: object with amount (number) and currency (ISO code)
- signatories: array of objects with name and title

Respond with a single JSON object using exactly these keys. Use null for any field that is not in the contract.`
