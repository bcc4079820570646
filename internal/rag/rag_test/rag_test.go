package rag_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/data/sqlStore"
	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/domain/commonModels"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/internal/rag"
	"github.com/akolanti/ContractIntelAPI/internal/rag/llm"
)

func newDocuments(t *testing.T) documentModel.Repository {
	t.Helper()
	db, err := sqlStore.NewStore(filepath.Join(t.TempDir(), "rag.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := db.Documents()

	ctx := context.Background()
	for _, id := range []string{"doc-done", "doc-pending"} {
		_, _, err := repo.CreateIfAbsent(ctx, documentModel.Document{
			Id: id, ContentHash: "hash-" + id, Filename: id + ".pdf",
			Status: documentModel.StatusPending, UploadedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("creating %s: %v", id, err)
		}
	}
	if err := repo.UpdateStatus(ctx, "doc-done", documentModel.StatusProcessing, ""); err != nil {
		t.Fatal(err)
	}
	if err := repo.CompleteDocument(ctx, "doc-done", 3, 900); err != nil {
		t.Fatal(err)
	}
	return repo
}

func hit(index int, score float32) commonModels.ScoredChunk {
	return commonModels.ScoredChunk{
		VectorId: "v", DocumentId: "doc-done", PageNumber: index + 1, ChunkIndex: index,
		CharStart: 0, CharEnd: 40, Text: "The term of this Agreement is two years.", Score: score,
	}
}

func TestAsk_Scenarios(t *testing.T) {
	tests := []struct {
		name          string
		question      string
		documentIds   []string
		setupMocks    func(e *MockEmbedder, v *MockIndex, l *MockLLM)
		wantKind      apperr.Kind
		wantAnswer    string
		wantCitations int
		wantLLMCalls  int
		wantGrounded  bool
	}{
		{
			name:     "Success_Grounded",
			question: "What is the term?",
			setupMocks: func(e *MockEmbedder, v *MockIndex, l *MockLLM) {
				v.OnQuery = func(ctx context.Context, vec []float32, topK int, ids []string) ([]commonModels.ScoredChunk, error) {
					return []commonModels.ScoredChunk{hit(0, 0.91), hit(1, 0.75), hit(2, 0.4)}, nil
				}
				l.OnComplete = func(ctx context.Context, req llm.Request) (string, error) {
					return "Two years [Document doc-done, Chunk 0].", nil
				}
			},
			wantAnswer:    "Two years [Document doc-done, Chunk 0].",
			wantCitations: 2,
			wantLLMCalls:  1,
			wantGrounded:  true,
		},
		{
			name:     "Model_Refuses",
			question: "Who signed for the supplier?",
			setupMocks: func(e *MockEmbedder, v *MockIndex, l *MockLLM) {
				v.OnQuery = func(ctx context.Context, vec []float32, topK int, ids []string) ([]commonModels.ScoredChunk, error) {
					return []commonModels.ScoredChunk{hit(0, 0.88)}, nil
				}
				l.OnComplete = func(ctx context.Context, req llm.Request) (string, error) {
					return "  " + rag.RefusalAnswer + ".\n", nil
				}
			},
			wantAnswer:    "  " + rag.RefusalAnswer + ".\n",
			wantCitations: 1,
			wantLLMCalls:  1,
		},
		{
			name:     "Below_Threshold_Skips_Model",
			question: "Who is the CEO?",
			setupMocks: func(e *MockEmbedder, v *MockIndex, l *MockLLM) {
				v.OnQuery = func(ctx context.Context, vec []float32, topK int, ids []string) ([]commonModels.ScoredChunk, error) {
					return []commonModels.ScoredChunk{hit(0, 0.69)}, nil
				}
			},
			wantAnswer: rag.NoRelevantContentAnswer,
		},
		{
			name:     "Empty_Question",
			question: "   ",
			wantKind: apperr.KindInputValidation,
		},
		{
			name:     "Question_Too_Long",
			question: strings.Repeat("a", config.MaxQuestionLength+1),
			wantKind: apperr.KindInputValidation,
		},
		{
			name:        "Unknown_Document",
			question:    "What is the term?",
			documentIds: []string{"nope"},
			wantKind:    apperr.KindNotFound,
		},
		{
			name:        "Document_Not_Completed",
			question:    "What is the term?",
			documentIds: []string{"doc-pending"},
			wantKind:    apperr.KindDocumentState,
		},
		{
			name:     "Failure_Embedding",
			question: "What is the term?",
			setupMocks: func(e *MockEmbedder, v *MockIndex, l *MockLLM) {
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			wantKind: apperr.KindExternalService,
		},
		{
			name:     "Failure_LLM_Generation",
			question: "What is the term?",
			setupMocks: func(e *MockEmbedder, v *MockIndex, l *MockLLM) {
				v.OnQuery = func(ctx context.Context, vec []float32, topK int, ids []string) ([]commonModels.ScoredChunk, error) {
					return []commonModels.ScoredChunk{hit(0, 0.9)}, nil
				}
				l.OnComplete = func(ctx context.Context, req llm.Request) (string, error) {
					return "", errors.New("provider down")
				}
			},
			wantKind:     apperr.KindExternalService,
			wantLLMCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mIndex := &MockIndex{}
			mLLM := &MockLLM{}
			if tt.setupMocks != nil {
				tt.setupMocks(mEmbed, mIndex, mLLM)
			}

			s := rag.NewService(rag.ServiceConfig{
				Documents: newDocuments(t), Index: mIndex, Embedder: mEmbed, LLM: mLLM,
			})
			got, err := s.Ask(context.Background(), tt.question, tt.documentIds)

			if tt.wantKind != "" {
				if !apperr.Is(err, tt.wantKind) {
					t.Fatalf("error got %v, want kind %s", err, tt.wantKind)
				}
			} else if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tt.wantAnswer != "" && got.Answer != tt.wantAnswer {
				t.Errorf("Answer got %q, want %q", got.Answer, tt.wantAnswer)
			}
			if err == nil && len(got.Citations) != tt.wantCitations {
				t.Errorf("Citations got %d, want %d", len(got.Citations), tt.wantCitations)
			}
			if mLLM.CallCount() != tt.wantLLMCalls {
				t.Errorf("LLM calls got %d, want %d", mLLM.CallCount(), tt.wantLLMCalls)
			}
			if got.Grounded != tt.wantGrounded {
				t.Errorf("Grounded got %v, want %v", got.Grounded, tt.wantGrounded)
			}
		})
	}
}

func TestAsk_GenerationErrorIsGeneric(t *testing.T) {
	mIndex := &MockIndex{OnQuery: func(ctx context.Context, vec []float32, topK int, ids []string) ([]commonModels.ScoredChunk, error) {
		return []commonModels.ScoredChunk{hit(0, 0.9)}, nil
	}}
	mLLM := &MockLLM{OnComplete: func(ctx context.Context, req llm.Request) (string, error) {
		return "", errors.New("sk-secret-key rejected")
	}}
	s := rag.NewService(rag.ServiceConfig{Documents: newDocuments(t), Index: mIndex, Embedder: &MockEmbedder{}, LLM: mLLM})

	_, err := s.Ask(context.Background(), "What is the term?", nil)
	if msg := apperr.PublicMessage(err); msg != "answer unavailable" {
		t.Errorf("public message got %q", msg)
	}
}

func TestAsk_CitationsComeFromRetrieval(t *testing.T) {
	var gotTopK int
	var gotFilter []string
	mIndex := &MockIndex{OnQuery: func(ctx context.Context, vec []float32, topK int, ids []string) ([]commonModels.ScoredChunk, error) {
		gotTopK, gotFilter = topK, ids
		return []commonModels.ScoredChunk{hit(4, 0.8)}, nil
	}}
	mLLM := &MockLLM{OnComplete: func(ctx context.Context, req llm.Request) (string, error) {
		if !strings.Contains(req.Prompt, "[Document doc-done, Chunk 4]") {
			t.Errorf("context block missing tag: %q", req.Prompt)
		}
		if req.Temperature != config.AnswerTemperature {
			t.Errorf("temperature got %v", req.Temperature)
		}
		// the model cites a page that was never retrieved
		return "See page 99.", nil
	}}
	s := rag.NewService(rag.ServiceConfig{Documents: newDocuments(t), Index: mIndex, Embedder: &MockEmbedder{}, LLM: mLLM})

	got, err := s.Ask(context.Background(), "What is the term?", []string{"doc-done"})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if gotTopK != config.RetrievalTopK || len(gotFilter) != 1 {
		t.Errorf("query got topK=%d filter=%v", gotTopK, gotFilter)
	}
	if len(got.Citations) != 1 || got.Citations[0].PageNumber != 5 || got.Citations[0].ChunkIndex != 4 {
		t.Errorf("citations got %+v", got.Citations)
	}
}

func TestAskStream(t *testing.T) {
	mIndex := &MockIndex{OnQuery: func(ctx context.Context, vec []float32, topK int, ids []string) ([]commonModels.ScoredChunk, error) {
		return []commonModels.ScoredChunk{hit(0, 0.95)}, nil
	}}
	mLLM := &MockLLM{OnStream: []string{"Two ", "years."}}
	s := rag.NewService(rag.ServiceConfig{Documents: newDocuments(t), Index: mIndex, Embedder: &MockEmbedder{}, LLM: mLLM})

	stream, err := s.AskStream(context.Background(), "What is the term?", nil)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(stream.Citations) != 1 {
		t.Errorf("citations must be known before tokens, got %d", len(stream.Citations))
	}
	var out strings.Builder
	for tok := range stream.Tokens {
		out.WriteString(tok)
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream error %v", err)
	}
	if out.String() != "Two years." {
		t.Errorf("got %q", out.String())
	}
	if !stream.Grounded() {
		t.Error("answer from context should be grounded")
	}
}

func TestAskStream_RefusalIsNotGrounded(t *testing.T) {
	mIndex := &MockIndex{OnQuery: func(ctx context.Context, vec []float32, topK int, ids []string) ([]commonModels.ScoredChunk, error) {
		return []commonModels.ScoredChunk{hit(0, 0.95)}, nil
	}}
	// the refusal arrives split across tokens
	mLLM := &MockLLM{OnStream: []string{"I cannot answer ", "this based on the provided ", "documents."}}
	s := rag.NewService(rag.ServiceConfig{Documents: newDocuments(t), Index: mIndex, Embedder: &MockEmbedder{}, LLM: mLLM})

	stream, err := s.AskStream(context.Background(), "Who signed?", nil)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	for range stream.Tokens {
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream error %v", err)
	}
	if stream.Grounded() {
		t.Error("refusal must not be grounded")
	}
}

func TestAskStream_ProviderFailure(t *testing.T) {
	mIndex := &MockIndex{OnQuery: func(ctx context.Context, vec []float32, topK int, ids []string) ([]commonModels.ScoredChunk, error) {
		return []commonModels.ScoredChunk{hit(0, 0.95)}, nil
	}}
	mLLM := &MockLLM{OnStream: []string{"Two "}, StreamErr: errors.New("connection reset")}
	s := rag.NewService(rag.ServiceConfig{Documents: newDocuments(t), Index: mIndex, Embedder: &MockEmbedder{}, LLM: mLLM})

	stream, err := s.AskStream(context.Background(), "What is the term?", nil)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	for range stream.Tokens {
	}
	if err := stream.Err(); !apperr.Is(err, apperr.KindExternalService) {
		t.Errorf("got %v, want external service error", err)
	}
}

func TestAskStream_NoContext(t *testing.T) {
	mLLM := &MockLLM{}
	s := rag.NewService(rag.ServiceConfig{Documents: newDocuments(t), Index: &MockIndex{}, Embedder: &MockEmbedder{}, LLM: mLLM})

	stream, err := s.AskStream(context.Background(), "Anything?", nil)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	var got []string
	for tok := range stream.Tokens {
		got = append(got, tok)
	}
	if len(got) != 1 || got[0] != rag.NoRelevantContentAnswer {
		t.Errorf("got %v", got)
	}
	if stream.Err() != nil || mLLM.CallCount() != 0 {
		t.Error("no model call expected")
	}
	if stream.Grounded() {
		t.Error("no-context answer must not be grounded")
	}
}
