package contractModel

import (
	"context"
	"time"
)

type ExtractionMethod string

const (
	MethodModel    ExtractionMethod = "model"
	MethodFallback ExtractionMethod = "fallback"
	MethodFailed   ExtractionMethod = "failed"
)

type AutoRenewal struct {
	Enabled    *bool   `json:"enabled"`
	NoticeDays *int    `json:"notice_days"`
	Terms      *string `json:"terms"`
}

type LiabilityCap struct {
	Amount   *float64 `json:"amount"`
	Currency *string  `json:"currency"`
}

type Signatory struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}

// Fields is the structured view of a contract. Every field is nullable; a field that
// was not found serializes as null.
type Fields struct {
	Parties         []string      `json:"parties"`
	EffectiveDate   *string       `json:"effective_date"`
	Term            *string       `json:"term"`
	GoverningLaw    *string       `json:"governing_law"`
	PaymentTerms    *string       `json:"payment_terms"`
	Termination     *string       `json:"termination"`
	AutoRenewal     *AutoRenewal  `json:"auto_renewal"`
	Confidentiality *string       `json:"confidentiality"`
	Indemnity       *string       `json:"indemnity"`
	LiabilityCap    *LiabilityCap `json:"liability_cap"`
	Signatories     []Signatory   `json:"signatories"`
}

type Extraction struct {
	DocumentId string           `json:"document_id"`
	Fields     Fields           `json:"fields"`
	Method     ExtractionMethod `json:"extraction_method"`
	ModelUsed  string           `json:"model_used,omitempty"`
	Raw        string           `json:"-"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (e Extraction) IsFallback() bool { return e.Method == MethodFallback }
func (e Extraction) IsFailed() bool   { return e.Method == MethodFailed }

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// ParseSeverity maps unknown input to medium.
func ParseSeverity(s string) Severity {
	sev := Severity(s)
	if sev.Rank() == 0 {
		return SeverityMedium
	}
	return sev
}

type Category string

const (
	CategoryAutoRenewal          Category = "auto_renewal"
	CategoryUnlimitedLiability   Category = "unlimited_liability"
	CategoryBroadIndemnity       Category = "broad_indemnity"
	CategoryTerminationImbalance Category = "termination_imbalance"
	CategoryUnfavorablePayment   Category = "unfavorable_payment"
	CategoryWeakConfidentiality  Category = "weak_confidentiality"
	CategoryOther                Category = "other"
)

var Categories = []Category{
	CategoryAutoRenewal,
	CategoryUnlimitedLiability,
	CategoryBroadIndemnity,
	CategoryTerminationImbalance,
	CategoryUnfavorablePayment,
	CategoryWeakConfidentiality,
	CategoryOther,
}

// ParseCategory maps anything outside the closed set to other.
func ParseCategory(s string) Category {
	for _, c := range Categories {
		if string(c) == s {
			return c
		}
	}
	return CategoryOther
}

type DetectionMethod string

const (
	DetectedByRule  DetectionMethod = "rule"
	DetectedByModel DetectionMethod = "model"
	DetectedByBoth  DetectionMethod = "both"
)

type Evidence struct {
	Text       string `json:"text"`
	CharStart  *int   `json:"char_start"`
	CharEnd    *int   `json:"char_end"`
	PageNumber *int   `json:"page_number"`
}

type Finding struct {
	DocumentId      string          `json:"document_id"`
	Category        Category        `json:"category"`
	Severity        Severity        `json:"severity"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Recommendation  string          `json:"recommendation,omitempty"`
	Evidence        Evidence        `json:"evidence"`
	DetectionMethod DetectionMethod `json:"detection_method"`
	RuleMatched     string          `json:"rule_matched,omitempty"`
}

type AuditMode string

const (
	ModeRulesOnly AuditMode = "rules_only"
	ModeModelOnly AuditMode = "model_only"
	ModeHybrid    AuditMode = "hybrid"
)

type AuditResult struct {
	DocumentId string    `json:"document_id"`
	Mode       AuditMode `json:"mode"`
	Findings   []Finding `json:"findings"`
	Partial    bool      `json:"partial"`
	Warnings   []string  `json:"warnings,omitempty"`
}

type ExtractionStats struct {
	Total    int
	ByMethod map[ExtractionMethod]int
}

// SuccessRate is the share of extractions that produced fields from the model.
func (s ExtractionStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.ByMethod[MethodModel]) / float64(s.Total)
}

type Repository interface {
	GetExtraction(ctx context.Context, documentId string) (Extraction, bool, error)
	SaveExtraction(ctx context.Context, extraction Extraction) error
	// ReplaceFindings swaps the whole finding set of a document in one transaction.
	ReplaceFindings(ctx context.Context, documentId string, findings []Finding) error
	GetFindings(ctx context.Context, documentId string) ([]Finding, error)
	ExtractionStats(ctx context.Context) (ExtractionStats, error)
}
