package googleEmbedding

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/retry"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
	"google.golang.org/genai"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *Client

// Client embeds text with the Gemini embedding models.
type Client struct {
	models    embedModels
	model     string
	dimension int32
	timeout   time.Duration
	policy    retry.Policy
}

// embedModels is the slice of genai.Models we use; tests swap it.
type embedModels interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

func newGoogleEmbedder(ctx context.Context, apikey string, modelName string, dimension int32, timeout time.Duration) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		logger.Error("Error creating Google Embedding client", "error", err)
		return
	}
	embeddingClient = &Client{
		models:    c.Models,
		model:     modelName,
		dimension: dimension,
		timeout:   timeout,
		policy:    retry.DefaultPolicy(),
	}
	logger.Info("Google Embedding client created", "model", modelName, "dimension", dimension)
	go closeClient(ctx)
}

func closeClient(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Google Embedding client")
}

// GetGoogleEmbeddingClient returns the process-wide embedder, or nil if it could not be built.
func GetGoogleEmbeddingClient(ctx context.Context, apikey string, modelName string, dimension int32, timeout time.Duration) *Client {
	once.Do(func() {
		logger = logger_i.NewLogger("google_embedding")
		newGoogleEmbedder(ctx, apikey, modelName, dimension, timeout)
	})
	return embeddingClient
}

func (c *Client) Dimension() int    { return int(c.dimension) }
func (c *Client) ModelName() string { return c.model }

func (c *Client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{query}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return [][]float32{}, nil
	}
	return c.embed(ctx, chunks, "RETRIEVAL_DOCUMENT")
}

func (c *Client) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	log := logger.WithTrace(ctx).With("model", c.model, "texts", len(texts))
	if c.models == nil {
		return nil, errors.New("google embedding client is closed")
	}

	res, err := retry.Do(ctx, c.policy, log, "google_embedding", func(ctx context.Context) (*genai.EmbedContentResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		r, err := c.models.EmbedContent(callCtx, c.model, getContent(texts), &genai.EmbedContentConfig{
			OutputDimensionality: &c.dimension,
			TaskType:             taskType,
		})
		return r, retry.FromGenAI(err)
	})
	if err != nil {
		log.Error("Error getting Embeddings from Google", "error", err)
		return nil, err
	}
	return toVectors(res, len(texts), int(c.dimension))
}
