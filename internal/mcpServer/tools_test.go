package mcpServer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/domain/commonModels"
	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/internal/rag"
	"github.com/akolanti/ContractIntelAPI/internal/rag/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	return path
}

func TestHandleIngest(t *testing.T) {
	var gotName string
	var gotSize int
	docs := &MockDocuments{OnIngest: func(data []byte, filename string) (ingest.Handle, error) {
		gotName, gotSize = filename, len(data)
		return ingest.Handle{Id: "doc-1", Filename: filename, Status: documentModel.StatusPending, JobId: "job-1"}, nil
	}}
	s := newTestServer(t, &Ports{Documents: docs, Questions: &MockQuestions{}, MaxUploadBytes: 64})

	_, out, err := s.handleIngest(context.Background(), nil, IngestInput{Path: writeFile(t, "msa.pdf", 32)})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", out.DocumentId)
	assert.Equal(t, "job-1", out.JobId)
	assert.Equal(t, "pending", out.Status)
	assert.Equal(t, "msa.pdf", gotName)
	assert.Equal(t, 32, gotSize)
}

func TestHandleIngest_Rejects(t *testing.T) {
	docs := &MockDocuments{OnIngest: func([]byte, string) (ingest.Handle, error) {
		t.Fatal("ingest must not be called")
		return ingest.Handle{}, nil
	}}
	s := newTestServer(t, &Ports{Documents: docs, Questions: &MockQuestions{}, MaxUploadBytes: 16})

	tests := []struct {
		name string
		path string
	}{
		{"empty path", ""},
		{"missing file", filepath.Join(t.TempDir(), "nope.pdf")},
		{"directory", t.TempDir()},
		{"too large", writeFile(t, "big.pdf", 17)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.handleIngest(context.Background(), nil, IngestInput{Path: tt.path})
			require.Error(t, err)
			assert.Contains(t, err.Error(), string(apperr.KindInputValidation))
		})
	}
}

func TestHandleStatus_NotFound(t *testing.T) {
	docs := &MockDocuments{OnGetStatus: func(id string) (documentModel.Document, error) {
		return documentModel.Document{}, apperr.NotFound("document not found")
	}}
	s := newTestServer(t, &Ports{Documents: docs, Questions: &MockQuestions{}})

	_, _, err := s.handleStatus(context.Background(), nil, DocumentInput{DocumentId: "x"})
	require.Error(t, err)
	assert.Equal(t, "not_found: document not found", err.Error())
}

func TestHandleAsk(t *testing.T) {
	questions := &MockQuestions{OnAsk: func(question string, ids []string) (rag.Answer, error) {
		assert.Equal(t, []string{"doc-1"}, ids)
		return rag.Answer{
			Answer:    "Delaware [1]",
			Grounded:  true,
			Citations: []commonModels.Citation{{DocumentId: "doc-1", PageNumber: 3, Score: 0.9}},
		}, nil
	}}
	s := newTestServer(t, &Ports{Documents: &MockDocuments{}, Questions: questions})

	_, out, err := s.handleAsk(context.Background(), nil, AskInput{Question: "Governing law?", DocumentIds: []string{"doc-1"}})
	require.NoError(t, err)
	assert.True(t, out.Grounded)
	require.Len(t, out.Citations, 1)
	assert.Equal(t, 3, out.Citations[0].PageNumber)
}

func TestHandleAsk_HidesCause(t *testing.T) {
	questions := &MockQuestions{OnAsk: func(string, []string) (rag.Answer, error) {
		return rag.Answer{}, apperr.ExternalService("search is unavailable", errors.New("dial tcp 10.0.0.7:6334"))
	}}
	s := newTestServer(t, &Ports{Documents: &MockDocuments{}, Questions: questions})

	_, out, err := s.handleAsk(context.Background(), nil, AskInput{Question: "q"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "10.0.0.7")
	assert.Nil(t, out.Citations)
}

func TestHandleAsk_EmptyCitationsNotNull(t *testing.T) {
	questions := &MockQuestions{OnAsk: func(string, []string) (rag.Answer, error) {
		return rag.Answer{Answer: "not found"}, nil
	}}
	s := newTestServer(t, &Ports{Documents: &MockDocuments{}, Questions: questions})

	_, out, err := s.handleAsk(context.Background(), nil, AskInput{Question: "q"})
	require.NoError(t, err)
	assert.NotNil(t, out.Citations)
	assert.Empty(t, out.Citations)
}

func TestHandleExtract(t *testing.T) {
	law := "Delaware"
	extraction := &MockExtraction{OnExtract: func(id string, force bool) (contractModel.Extraction, error) {
		assert.True(t, force)
		return contractModel.Extraction{
			DocumentId: id,
			Method:     contractModel.MethodModel,
			ModelUsed:  "gemini-test",
			Fields:     contractModel.Fields{GoverningLaw: &law},
		}, nil
	}}
	s := newTestServer(t, &Ports{Documents: &MockDocuments{}, Questions: &MockQuestions{}, Extraction: extraction})

	_, out, err := s.handleExtract(context.Background(), nil, ExtractInput{DocumentId: "doc-1", Force: true})
	require.NoError(t, err)
	assert.Equal(t, "model", out.Method)
	assert.Equal(t, "Delaware", out.Fields["governing_law"])
	v, ok := out.Fields["effective_date"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestHandleAudit(t *testing.T) {
	page := 2
	audit := &MockAudit{OnAudit: func(id, mode string) (contractModel.AuditResult, error) {
		assert.Equal(t, "rules_only", mode)
		return contractModel.AuditResult{
			DocumentId: id,
			Mode:       contractModel.ModeRulesOnly,
			Findings: []contractModel.Finding{{
				Category:        contractModel.CategoryUnlimitedLiability,
				Severity:        contractModel.SeverityHigh,
				Title:           "Unlimited liability",
				Evidence:        contractModel.Evidence{Text: "unlimited liability", PageNumber: &page},
				DetectionMethod: contractModel.DetectedByRule,
				RuleMatched:     "unlimited_liability",
			}},
		}, nil
	}}
	s := newTestServer(t, &Ports{Documents: &MockDocuments{}, Questions: &MockQuestions{}, Audit: audit})

	_, out, err := s.handleAudit(context.Background(), nil, AuditInput{DocumentId: "doc-1", Mode: "rules_only"})
	require.NoError(t, err)
	require.Len(t, out.Findings, 1)
	assert.Equal(t, 2, out.Findings[0].PageNumber)
	assert.Equal(t, "high", out.Findings[0].Severity)
	assert.Equal(t, "unlimited_liability", out.Findings[0].RuleMatched)
}

func TestToFindingOutputs_EmptyIsNotNil(t *testing.T) {
	assert.NotNil(t, toFindingOutputs(nil))
}
