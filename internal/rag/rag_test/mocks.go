package rag_test

import (
	"context"
	"sync"

	"github.com/akolanti/ContractIntelAPI/internal/domain/commonModels"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/jobModel"
	"github.com/akolanti/ContractIntelAPI/internal/rag/llm"
)

// MockIndex implements vectorDB.Index
type MockIndex struct {
	mu sync.Mutex
	// records every DeleteDocument call
	Deleted []string

	OnUpsert func(ctx context.Context, filename string, chunks []documentModel.Chunk, vectors [][]float32) error
	OnQuery  func(ctx context.Context, vector []float32, topK int, documentIds []string) ([]commonModels.ScoredChunk, error)
	OnDelete func(ctx context.Context, documentId string) error
}

func (m *MockIndex) EnsureCollection(ctx context.Context) error { return nil }
func (m *MockIndex) Ping(ctx context.Context) error             { return nil }

func (m *MockIndex) Upsert(ctx context.Context, filename string, chunks []documentModel.Chunk, vectors [][]float32) error {
	if m.OnUpsert != nil {
		return m.OnUpsert(ctx, filename, chunks, vectors)
	}
	return nil
}

func (m *MockIndex) Query(ctx context.Context, vector []float32, topK int, documentIds []string) ([]commonModels.ScoredChunk, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, vector, topK, documentIds)
	}
	return nil, nil
}

func (m *MockIndex) DeleteDocument(ctx context.Context, documentId string) error {
	m.mu.Lock()
	m.Deleted = append(m.Deleted, documentId)
	m.mu.Unlock()
	if m.OnDelete != nil {
		return m.OnDelete(ctx, documentId)
	}
	return nil
}

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, chunks []string) ([][]float32, error)
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, chunks)
	}
	out := make([][]float32, len(chunks))
	for i := range chunks {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockEmbedder) Dimension() int    { return 3 }
func (m *MockEmbedder) ModelName() string { return "mock-embedding" }

// MockLLM implements llm.Provider. Calls counts Complete and Stream invocations.
type MockLLM struct {
	mu       sync.Mutex
	Calls    int
	Requests []llm.Request

	OnComplete func(ctx context.Context, req llm.Request) (string, error)
	// OnStream tokens are sent in order; StreamErr is reported after them.
	OnStream  []string
	StreamErr error
}

func (m *MockLLM) record(req llm.Request) {
	m.mu.Lock()
	m.Calls++
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
}

func (m *MockLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	m.record(req)
	if m.OnComplete != nil {
		return m.OnComplete(ctx, req)
	}
	return "mock answer", nil
}

func (m *MockLLM) Stream(ctx context.Context, req llm.Request) (<-chan string, <-chan error) {
	m.record(req)
	tokens := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(tokens)
		defer close(errs)
		for _, tok := range m.OnStream {
			select {
			case tokens <- tok:
			case <-ctx.Done():
				return
			}
		}
		if m.StreamErr != nil {
			errs <- m.StreamErr
		}
	}()
	return tokens, errs
}

func (m *MockLLM) ModelName() string { return "mock-llm" }

func (m *MockLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// MockQueue implements ingest.Queue
type MockQueue struct {
	mu        sync.Mutex
	Enqueued  []string
	OnEnqueue func(ctx context.Context, documentId string) (jobModel.Job, error)
}

func (m *MockQueue) Enqueue(ctx context.Context, documentId string) (jobModel.Job, error) {
	m.mu.Lock()
	m.Enqueued = append(m.Enqueued, documentId)
	m.mu.Unlock()
	if m.OnEnqueue != nil {
		return m.OnEnqueue(ctx, documentId)
	}
	return jobModel.Job{Id: "job-" + documentId, DocumentId: documentId, Status: jobModel.JobStatusQueued}, nil
}
