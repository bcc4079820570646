package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/internal/metrics"
	"github.com/akolanti/ContractIntelAPI/internal/rag/llm"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
)

var logger = logger_i.NewLogger("audit")

type Config struct {
	Documents   documentModel.Repository
	Contracts   contractModel.Repository
	LLM         llm.Provider
	Metrics     *metrics.Recorder
	DedupeRatio float64
	MaxChars    int
}

type Engine struct {
	docs        documentModel.Repository
	contracts   contractModel.Repository
	model       modelDetector
	metrics     *metrics.Recorder
	dedupeRatio float64
}

func NewEngine(cfg Config) *Engine {
	e := &Engine{
		docs:        cfg.Documents,
		contracts:   cfg.Contracts,
		model:       modelDetector{llm: cfg.LLM, maxChars: cfg.MaxChars},
		metrics:     cfg.Metrics,
		dedupeRatio: cfg.DedupeRatio,
	}
	if e.dedupeRatio <= 0 {
		e.dedupeRatio = config.DedupeOverlapRatio
	}
	if e.model.maxChars <= 0 {
		e.model.maxChars = config.AuditMaxChars
	}
	return e
}

// ParseMode maps the empty string to hybrid.
func ParseMode(s string) (contractModel.AuditMode, error) {
	switch contractModel.AuditMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", contractModel.ModeHybrid:
		return contractModel.ModeHybrid, nil
	case contractModel.ModeRulesOnly:
		return contractModel.ModeRulesOnly, nil
	case contractModel.ModeModelOnly:
		return contractModel.ModeModelOnly, nil
	}
	return "", apperr.InputValidation(fmt.Sprintf("unknown audit mode %q; use rules_only, model_only or hybrid", s))
}

// Audit runs the detectors for mode and replaces the stored findings of the document.
// A failing model never fails the audit; the result is marked partial instead.
func (e *Engine) Audit(ctx context.Context, documentId string, mode string) (contractModel.AuditResult, error) {
	log := logger.WithTrace(ctx).With("documentId", documentId)

	auditMode, err := ParseMode(mode)
	if err != nil {
		return contractModel.AuditResult{}, err
	}
	doc, err := e.docs.GetDocument(ctx, documentId)
	if err != nil {
		return contractModel.AuditResult{}, err
	}
	if !doc.IsCompleted() {
		return contractModel.AuditResult{}, apperr.DocumentState(fmt.Sprintf("document %s is %s, not completed", documentId, doc.Status))
	}
	pages, err := e.docs.GetPages(ctx, documentId)
	if err != nil {
		return contractModel.AuditResult{}, apperr.Internal("could not read pages", err)
	}
	text := documentModel.JoinPages(pages)

	start := time.Now()
	result := contractModel.AuditResult{DocumentId: documentId, Mode: auditMode}

	var ruleFindings, modelFindings []contractModel.Finding
	if auditMode != contractModel.ModeModelOnly {
		ruleFindings = e.executeRulesStep(ctx, text, documentId)
	}
	if auditMode != contractModel.ModeRulesOnly {
		modelFindings, err = e.executeModelStep(ctx, text)
		if err != nil {
			log.Warn("Model audit failed", "mode", auditMode, "error", err)
			result.Partial = true
			result.Warnings = append(result.Warnings, "model-based audit unavailable; results are from the rule-based detector only")
			if auditMode == contractModel.ModeModelOnly {
				result.Warnings = []string{"model-based audit unavailable; no findings produced and the previous audit was kept"}
			}
		}
	}

	findings := MergeFindings(ruleFindings, modelFindings, e.dedupeRatio)
	SortFindings(findings)
	severities := make([]string, len(findings))
	for i := range findings {
		findings[i].DocumentId = documentId
		severities[i] = string(findings[i].Severity)
	}
	result.Findings = findings

	// a model-only audit whose model failed has nothing to say, so the stored set stays
	if result.Partial && auditMode == contractModel.ModeModelOnly {
		log.Warn("Model-only audit failed, keeping stored findings", "mode", auditMode)
		return result, nil
	}
	if err := e.contracts.ReplaceFindings(ctx, documentId, findings); err != nil {
		return contractModel.AuditResult{}, apperr.Internal("could not save findings", err)
	}
	e.metrics.AuditDone(ctx, severities)
	metrics.CaptureExecutionMetrics("audit", time.Since(start))
	log.Info("Audit complete", "mode", auditMode, "rules", len(ruleFindings), "model", len(modelFindings), "findings", len(findings), "partial", result.Partial)
	return result, nil
}

// Findings returns the finding set stored by the last audit.
func (e *Engine) Findings(ctx context.Context, documentId string) ([]contractModel.Finding, error) {
	if _, err := e.docs.GetDocument(ctx, documentId); err != nil {
		return nil, err
	}
	return e.contracts.GetFindings(ctx, documentId)
}

func (e *Engine) executeRulesStep(ctx context.Context, text documentModel.Text, documentId string) []contractModel.Finding {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("audit_rules", time.Since(start)) }()

	d := ruleDetector{text: text}
	if ex, found, err := e.contracts.GetExtraction(ctx, documentId); err == nil && found {
		d.extraction = &ex
	}
	return d.detect()
}

func (e *Engine) executeModelStep(ctx context.Context, text documentModel.Text) ([]contractModel.Finding, error) {
	if e.model.llm == nil {
		return nil, fmt.Errorf("no language model configured")
	}
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("audit_model", time.Since(start)) }()

	return e.model.detect(ctx, text)
}
