package handlers

import (
	"context"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/jobModel"
	"github.com/akolanti/ContractIntelAPI/internal/metrics"
	"github.com/akolanti/ContractIntelAPI/internal/rag"
	"github.com/akolanti/ContractIntelAPI/internal/rag/ingest"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
)

var logRH = logger_i.NewLogger("RequestHandler")

type DocumentService interface {
	Ingest(ctx context.Context, data []byte, filename string) (ingest.Handle, error)
	GetDocumentStatus(ctx context.Context, id string) (documentModel.Document, error)
	Reprocess(ctx context.Context, id string) (ingest.Handle, error)
}

type ExtractionService interface {
	Extract(ctx context.Context, documentId string, force bool) (contractModel.Extraction, error)
}

type AuditService interface {
	Audit(ctx context.Context, documentId string, mode string) (contractModel.AuditResult, error)
	Findings(ctx context.Context, documentId string) ([]contractModel.Finding, error)
}

type JobReader interface {
	GetJob(ctx context.Context, jobId string) (jobModel.Job, bool)
	JobsForDocument(ctx context.Context, documentId string) ([]jobModel.Job, error)
}

type DocumentCounter interface {
	CountByStatus(ctx context.Context) (map[documentModel.Status]int, error)
}

type ExtractionCounter interface {
	ExtractionStats(ctx context.Context) (contractModel.ExtractionStats, error)
}

// HealthCheck is one dependency probed by /healthz.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type Dependencies struct {
	Documents      DocumentService
	Extraction     ExtractionService
	Questions      rag.Service
	Audit          AuditService
	Jobs           JobReader
	DocumentStats  DocumentCounter
	ExtractStats   ExtractionCounter
	Counters       metrics.CounterStore
	HealthChecks   []HealthCheck
	MaxUploadBytes int64
}

// Handler serves every HTTP route. The methods are plain http.HandlerFunc so the
// middleware can wrap them individually.
type Handler struct {
	documents      DocumentService
	extraction     ExtractionService
	questions      rag.Service
	audit          AuditService
	jobs           JobReader
	documentStats  DocumentCounter
	extractStats   ExtractionCounter
	counters       metrics.CounterStore
	healthChecks   []HealthCheck
	maxUploadBytes int64
}

func New(deps Dependencies) *Handler {
	h := &Handler{
		documents:      deps.Documents,
		extraction:     deps.Extraction,
		questions:      deps.Questions,
		audit:          deps.Audit,
		jobs:           deps.Jobs,
		documentStats:  deps.DocumentStats,
		extractStats:   deps.ExtractStats,
		counters:       deps.Counters,
		healthChecks:   deps.HealthChecks,
		maxUploadBytes: deps.MaxUploadBytes,
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = config.MaxUploadBytes
	}
	logRH.Info("Request handlers ready", "healthChecks", len(h.healthChecks))
	return h
}
