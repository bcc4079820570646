package mcpServer

import (
	"context"

	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/internal/rag"
	"github.com/akolanti/ContractIntelAPI/internal/rag/ingest"
)

type DocumentService interface {
	Ingest(ctx context.Context, data []byte, filename string) (ingest.Handle, error)
	GetDocumentStatus(ctx context.Context, id string) (documentModel.Document, error)
}

type ExtractionService interface {
	Extract(ctx context.Context, documentId string, force bool) (contractModel.Extraction, error)
}

type AuditService interface {
	Audit(ctx context.Context, documentId string, mode string) (contractModel.AuditResult, error)
	Findings(ctx context.Context, documentId string) ([]contractModel.Finding, error)
}

// Ports are the services the tools call into.
type Ports struct {
	Documents  DocumentService
	Questions  rag.Service
	Extraction ExtractionService
	// Audit is optional; without it the audit tools are not registered.
	Audit AuditService
	// MaxUploadBytes caps files read by ingest_contract.
	MaxUploadBytes int64
}

func (p *Ports) Validate() error {
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	if p.Questions == nil {
		return ErrMissingQuestionService
	}
	return nil
}
