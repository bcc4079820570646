package rag

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/domain/commonModels"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/internal/metrics"
	"github.com/akolanti/ContractIntelAPI/internal/rag/embedding"
	"github.com/akolanti/ContractIntelAPI/internal/rag/llm"
	"github.com/akolanti/ContractIntelAPI/internal/rag/vectorDB"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
)

// NoRelevantContentAnswer is returned, without a model call, when retrieval finds nothing above the threshold.
const NoRelevantContentAnswer = "I could not find any relevant content in the provided documents to answer this question."

// RefusalAnswer is what the model is told to say when the context does not contain the answer.
const RefusalAnswer = "I cannot answer this based on the provided documents"

// Service answers questions over ingested documents. Handlers only see this interface,
// so the stores and model clients behind it can be swapped for mocks.
type Service interface {
	Ask(ctx context.Context, question string, documentIds []string) (Answer, error)
	AskStream(ctx context.Context, question string, documentIds []string) (*Stream, error)
}

type Answer struct {
	Answer    string                  `json:"answer"`
	Citations []commonModels.Citation `json:"citations"`
	Grounded  bool                    `json:"grounded"`
}

// Stream carries citations up front; Tokens closes when generation ends. Err blocks
// until then and reports a generation failure. Grounded blocks until Tokens closes.
type Stream struct {
	Citations []commonModels.Citation
	Tokens    <-chan string

	errs     <-chan error
	once     sync.Once
	err      error
	done     chan struct{}
	grounded bool
}

func (s *Stream) Err() error {
	s.once.Do(func() {
		if s.errs == nil {
			return
		}
		if err, ok := <-s.errs; ok && err != nil {
			s.err = apperr.ExternalService("answer unavailable", err)
		}
	})
	return s.err
}

// Grounded reports whether the finished answer came from the retrieved context
// rather than the model's refusal. Streams without a model call are never grounded.
func (s *Stream) Grounded() bool {
	if s.done == nil {
		return false
	}
	<-s.done
	return s.grounded
}

// isGrounded is false when the model fell back to the refusal sentence.
func isGrounded(answer string) bool {
	return !strings.Contains(strings.TrimSpace(answer), RefusalAnswer)
}

// relay forwards model tokens to the caller while keeping the full answer, so the
// grounded flag is known once generation ends.
func (s *service) relay(ctx context.Context, citations []commonModels.Citation, in <-chan string, errs <-chan error) *Stream {
	out := make(chan string)
	stream := &Stream{Citations: citations, Tokens: out, errs: errs, done: make(chan struct{})}

	go func() {
		defer close(out)
		var answer strings.Builder
		abandoned := false
	forward:
		for tok := range in {
			answer.WriteString(tok)
			select {
			case out <- tok:
			case <-ctx.Done():
				abandoned = true
				break forward
			}
		}
		stream.grounded = !abandoned && isGrounded(answer.String())
		close(stream.done)
		s.metrics.QuestionAnswered(context.WithoutCancel(ctx), stream.grounded)
	}()
	return stream
}

type ServiceConfig struct {
	Documents documentModel.Repository
	Index     vectorDB.Index
	Embedder  embedding.Embedder
	LLM       llm.Provider
	Metrics   *metrics.Recorder
	TopK      int
	Threshold float32
}

type service struct {
	docs        documentModel.Repository
	index       vectorDB.Index
	embedder    embedding.Embedder
	llmProvider llm.Provider
	metrics     *metrics.Recorder
	topK        int
	threshold   float32
	logger      *logger_i.Logger
}

func NewService(cfg ServiceConfig) Service {
	s := &service{
		docs:        cfg.Documents,
		index:       cfg.Index,
		embedder:    cfg.Embedder,
		llmProvider: cfg.LLM,
		metrics:     cfg.Metrics,
		topK:        cfg.TopK,
		threshold:   cfg.Threshold,
		logger:      logger_i.NewLogger("rag"),
	}
	if s.topK <= 0 {
		s.topK = config.RetrievalTopK
	}
	if s.threshold <= 0 {
		s.threshold = config.SimilarityThreshold
	}
	return s
}

// retrieve runs everything up to the model call. A nil context slice means nothing cleared the threshold.
func (s *service) retrieve(ctx context.Context, log *logger_i.Logger, question string, documentIds []string) ([]commonModels.ScoredChunk, error) {
	if err := validateQuestion(question); err != nil {
		return nil, err
	}
	if err := s.checkDocuments(ctx, documentIds); err != nil {
		return nil, err
	}

	log.Info("Question received", "question", logger_i.Redact(question), "documents", len(documentIds))

	emb, err := s.executeEmbeddingStep(ctx, question)
	if err != nil {
		return nil, apperr.ExternalService("could not embed question", err)
	}
	hits, err := s.executeVectorSearchStep(ctx, emb, documentIds)
	if err != nil {
		return nil, apperr.ExternalService("vector search failed", err)
	}

	relevant := aboveThreshold(hits, s.threshold)
	log.Debug("Retrieval done", "hits", len(hits), "relevant", len(relevant))
	return relevant, nil
}

func (s *service) Ask(ctx context.Context, question string, documentIds []string) (Answer, error) {
	log := s.logger.WithTrace(ctx)
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("ask", time.Since(start)) }()

	relevant, err := s.retrieve(ctx, log, question, documentIds)
	if err != nil {
		return Answer{}, err
	}
	if len(relevant) == 0 {
		s.metrics.QuestionAnswered(ctx, false)
		return Answer{Answer: NoRelevantContentAnswer, Citations: []commonModels.Citation{}}, nil
	}

	text, err := s.executeLLMStep(ctx, question, relevant)
	if err != nil {
		log.Error("Answer generation failed", "error", err)
		return Answer{}, apperr.ExternalService("answer unavailable", err)
	}

	grounded := isGrounded(text)
	s.metrics.QuestionAnswered(ctx, grounded)
	return Answer{Answer: text, Citations: citations(relevant), Grounded: grounded}, nil
}

func (s *service) AskStream(ctx context.Context, question string, documentIds []string) (*Stream, error) {
	log := s.logger.WithTrace(ctx)

	relevant, err := s.retrieve(ctx, log, question, documentIds)
	if err != nil {
		return nil, err
	}
	if len(relevant) == 0 {
		s.metrics.QuestionAnswered(ctx, false)
		tokens := make(chan string, 1)
		tokens <- NoRelevantContentAnswer
		close(tokens)
		return &Stream{Citations: []commonModels.Citation{}, Tokens: tokens}, nil
	}

	tokens, errs := s.llmProvider.Stream(ctx, answerRequest(question, relevant))
	return s.relay(ctx, citations(relevant), tokens, errs), nil
}
