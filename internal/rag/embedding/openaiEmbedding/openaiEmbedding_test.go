package openaiEmbedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/retry"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type mockEmbeddings struct {
	calls int
	OnNew func(body openai.EmbeddingNewParams) (*openai.CreateEmbeddingResponse, error)
}

func (m *mockEmbeddings) New(ctx context.Context, body openai.EmbeddingNewParams, opts ...option.RequestOption) (*openai.CreateEmbeddingResponse, error) {
	m.calls++
	return m.OnNew(body)
}

func testClient(m *mockEmbeddings, dim int) *Client {
	return &Client{
		api:       m,
		model:     "text-embedding-3-small",
		dimension: dim,
		timeout:   time.Second,
		policy:    retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		logger:    logger_i.NewLogger("test"),
	}
}

func TestBatchEmbedding_ReordersByIndex(t *testing.T) {
	m := &mockEmbeddings{OnNew: func(body openai.EmbeddingNewParams) (*openai.CreateEmbeddingResponse, error) {
		return &openai.CreateEmbeddingResponse{Data: []openai.Embedding{
			{Index: 1, Embedding: []float64{2, 2}},
			{Index: 0, Embedding: []float64{1, 1}},
		}}, nil
	}}
	got, err := testClient(m, 2).BatchEmbedding(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got[0][0] != 1 || got[1][0] != 2 {
		t.Errorf("vectors not ordered by index: %v", got)
	}
}

func TestBatchEmbedding_MissingVectorFails(t *testing.T) {
	m := &mockEmbeddings{OnNew: func(body openai.EmbeddingNewParams) (*openai.CreateEmbeddingResponse, error) {
		return &openai.CreateEmbeddingResponse{Data: []openai.Embedding{{Index: 0, Embedding: []float64{1, 1}}}}, nil
	}}
	if _, err := testClient(m, 2).BatchEmbedding(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("expected error when a vector is missing")
	}
}

func TestBatchEmbedding_RetriesTransient(t *testing.T) {
	m := &mockEmbeddings{}
	m.OnNew = func(body openai.EmbeddingNewParams) (*openai.CreateEmbeddingResponse, error) {
		if m.calls == 1 {
			return nil, retry.WithStatus(errors.New("overloaded"), 503)
		}
		return &openai.CreateEmbeddingResponse{Data: []openai.Embedding{{Index: 0, Embedding: []float64{0.5}}}}, nil
	}
	v, err := testClient(m, 0).GetEmbedding(context.Background(), "q")
	if err != nil || len(v) != 1 {
		t.Fatalf("got %v %v", v, err)
	}
	if m.calls != 2 {
		t.Errorf("expected a retry, calls=%d", m.calls)
	}
}
