package mcpServer

import (
	"context"
	"testing"

	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/internal/rag"
	"github.com/akolanti/ContractIntelAPI/internal/rag/ingest"
)

type MockDocuments struct {
	OnIngest    func(data []byte, filename string) (ingest.Handle, error)
	OnGetStatus func(id string) (documentModel.Document, error)
}

func (m *MockDocuments) Ingest(ctx context.Context, data []byte, filename string) (ingest.Handle, error) {
	return m.OnIngest(data, filename)
}

func (m *MockDocuments) GetDocumentStatus(ctx context.Context, id string) (documentModel.Document, error) {
	return m.OnGetStatus(id)
}

type MockQuestions struct {
	OnAsk func(question string, documentIds []string) (rag.Answer, error)
}

func (m *MockQuestions) Ask(ctx context.Context, question string, documentIds []string) (rag.Answer, error) {
	return m.OnAsk(question, documentIds)
}

func (m *MockQuestions) AskStream(ctx context.Context, question string, documentIds []string) (*rag.Stream, error) {
	return nil, nil
}

type MockExtraction struct {
	OnExtract func(documentId string, force bool) (contractModel.Extraction, error)
}

func (m *MockExtraction) Extract(ctx context.Context, documentId string, force bool) (contractModel.Extraction, error) {
	return m.OnExtract(documentId, force)
}

type MockAudit struct {
	OnAudit    func(documentId, mode string) (contractModel.AuditResult, error)
	OnFindings func(documentId string) ([]contractModel.Finding, error)
}

func (m *MockAudit) Audit(ctx context.Context, documentId string, mode string) (contractModel.AuditResult, error) {
	return m.OnAudit(documentId, mode)
}

func (m *MockAudit) Findings(ctx context.Context, documentId string) ([]contractModel.Finding, error) {
	return m.OnFindings(documentId)
}

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	s, err := NewServer(ports)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}
