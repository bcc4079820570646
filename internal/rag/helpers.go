package rag

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/domain/commonModels"
	"github.com/akolanti/ContractIntelAPI/internal/metrics"
	"github.com/akolanti/ContractIntelAPI/internal/rag/llm"
)

const systemInstruction = `You are a contract analysis assistant. Answer the question using only the context below.
Each context block is tagged with its document and chunk. If the context does not contain the answer,
reply exactly: "` + RefusalAnswer + `". Do not use outside knowledge and do not invent clauses.`

func validateQuestion(q string) error {
	q = strings.TrimSpace(q)
	if q == "" {
		return apperr.InputValidation("question is required")
	}
	if utf8.RuneCountInString(q) > config.MaxQuestionLength {
		return apperr.InputValidation(fmt.Sprintf("question exceeds %d characters", config.MaxQuestionLength))
	}
	return nil
}

// checkDocuments makes sure every filter id exists and is searchable.
func (s *service) checkDocuments(ctx context.Context, ids []string) error {
	for _, id := range ids {
		doc, err := s.docs.GetDocument(ctx, id)
		if err != nil {
			return err
		}
		if !doc.IsCompleted() {
			return apperr.DocumentState(fmt.Sprintf("document %s is %s, not completed", id, doc.Status))
		}
	}
	return nil
}

func aboveThreshold(hits []commonModels.ScoredChunk, threshold float32) []commonModels.ScoredChunk {
	var out []commonModels.ScoredChunk
	for _, h := range hits {
		if h.Score >= threshold {
			out = append(out, h)
		}
	}
	return out
}

func citations(chunks []commonModels.ScoredChunk) []commonModels.Citation {
	out := make([]commonModels.Citation, len(chunks))
	for i, c := range chunks {
		out[i] = c.ToCitation()
	}
	return out
}

func buildContext(chunks []commonModels.ScoredChunk) string {
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Document %s, Chunk %d]\n%s", c.DocumentId, c.ChunkIndex, c.Text)
	}
	return b.String()
}

func answerRequest(question string, chunks []commonModels.ScoredChunk) llm.Request {
	return llm.Request{
		System:      systemInstruction,
		Prompt:      "Context:\n" + buildContext(chunks) + "\n\nQuestion: " + question,
		Temperature: config.AnswerTemperature,
		Timeout:     config.LLMTimeout,
	}
}

func (s *service) executeEmbeddingStep(ctx context.Context, question string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.GetEmbedding(ctx, question)
}

func (s *service) executeVectorSearchStep(ctx context.Context, emb []float32, documentIds []string) ([]commonModels.ScoredChunk, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.index.Query(ctx, emb, s.topK, documentIds)
}

func (s *service) executeLLMStep(ctx context.Context, question string, chunks []commonModels.ScoredChunk) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.llmProvider.Complete(ctx, answerRequest(question, chunks))
}
