package extraction

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/internal/metrics"
	"github.com/akolanti/ContractIntelAPI/internal/rag/llm"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
)

var logger = logger_i.NewLogger("extraction")

type Config struct {
	Documents documentModel.Repository
	Contracts contractModel.Repository
	LLM       llm.Provider
	Metrics   *metrics.Recorder
	MaxChars  int
}

// Engine turns a completed document into structured Fields. It never fails
// because the model did; the worst outcome is an all-null extraction.
type Engine struct {
	docs      documentModel.Repository
	contracts contractModel.Repository
	llm       llm.Provider
	metrics   *metrics.Recorder
	maxChars  int
}

func NewEngine(cfg Config) *Engine {
	e := &Engine{
		docs:      cfg.Documents,
		contracts: cfg.Contracts,
		llm:       cfg.LLM,
		metrics:   cfg.Metrics,
		maxChars:  cfg.MaxChars,
	}
	if e.maxChars <= 0 {
		e.maxChars = config.ExtractionMaxChars
	}
	return e
}

// Extract returns the stored extraction unless force is set or none exists yet.
func (e *Engine) Extract(ctx context.Context, documentId string, force bool) (contractModel.Extraction, error) {
	log := logger.WithTrace(ctx).With("documentId", documentId)

	doc, err := e.docs.GetDocument(ctx, documentId)
	if err != nil {
		return contractModel.Extraction{}, err
	}
	if !doc.IsCompleted() {
		return contractModel.Extraction{}, apperr.DocumentState(fmt.Sprintf("document %s is %s, not completed", documentId, doc.Status))
	}

	if !force {
		cached, found, err := e.contracts.GetExtraction(ctx, documentId)
		if err != nil {
			return contractModel.Extraction{}, apperr.Internal("could not read extraction", err)
		}
		if found {
			log.Debug("Returning cached extraction", "method", cached.Method)
			return cached, nil
		}
	}

	pages, err := e.docs.GetPages(ctx, documentId)
	if err != nil {
		return contractModel.Extraction{}, apperr.Internal("could not read pages", err)
	}
	text := documentModel.JoinPages(pages).Body

	start := time.Now()
	result := e.run(ctx, log, text)
	result.DocumentId = documentId
	metrics.CaptureExecutionMetrics("extraction", time.Since(start))

	if err := e.contracts.SaveExtraction(ctx, result); err != nil {
		return contractModel.Extraction{}, apperr.Internal("could not save extraction", err)
	}
	e.metrics.ExtractionDone(ctx, string(result.Method))
	log.Info("Extraction stored", "method", result.Method, "elapsed", time.Since(start))

	// reread so timestamps match what is stored
	stored, found, err := e.contracts.GetExtraction(ctx, documentId)
	if err != nil || !found {
		return result, nil
	}
	return stored, nil
}

func (e *Engine) run(ctx context.Context, log *logger_i.Logger, text string) contractModel.Extraction {
	if e.llm != nil {
		fields, raw, err := e.fromModel(ctx, text)
		if err == nil {
			return contractModel.Extraction{Fields: fields, Method: contractModel.MethodModel, ModelUsed: e.llm.ModelName(), Raw: raw}
		}
		log.Warn("Model extraction failed, using fallback patterns", "error", err)
	}

	fields, found := fallbackFields(text)
	if !found {
		return contractModel.Extraction{Method: contractModel.MethodFailed}
	}
	return contractModel.Extraction{Fields: fields, Method: contractModel.MethodFallback, Raw: "regex"}
}

func (e *Engine) fromModel(ctx context.Context, text string) (contractModel.Fields, string, error) {
	raw, err := e.llm.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      "Contract text:\n\n" + documentModel.Truncate(text, e.maxChars),
		Temperature: config.ExtractionTemperature,
		JSON:        true,
		Timeout:     config.LLMTimeout,
	})
	if err != nil {
		return contractModel.Fields{}, "", err
	}

	var fields contractModel.Fields
	if err := fieldsSchema.Decode(raw, &fields); err != nil {
		return contractModel.Fields{}, raw, err
	}
	if fields.EffectiveDate != nil {
		if d, ok := NormaliseDate(*fields.EffectiveDate); ok {
			fields.EffectiveDate = &d
		} else {
			fields.EffectiveDate = nil
		}
	}
	fields.Parties = nonNil(fields.Parties)
	fields.Signatories = nonNilSignatories(fields.Signatories)
	return fields, raw, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilSignatories(s []contractModel.Signatory) []contractModel.Signatory {
	if s == nil {
		return []contractModel.Signatory{}
	}
	return s
}
