package openaiEmbedding

import (
	"context"
	"net/http"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/rag/embedding"
	"github.com/akolanti/ContractIntelAPI/internal/retry"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type embeddingsAPI interface {
	New(ctx context.Context, body openai.EmbeddingNewParams, opts ...option.RequestOption) (*openai.CreateEmbeddingResponse, error)
}

type Client struct {
	api       embeddingsAPI
	model     string
	dimension int
	timeout   time.Duration
	policy    retry.Policy
	logger    *logger_i.Logger
}

// NewClient retries are ours, the SDK's own retry loop is switched off.
func NewClient(apiKey string, baseURL string, model string, dimension int, timeout time.Duration, httpClient *http.Client) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	c := openai.NewClient(opts...)
	return &Client{
		api:       &c.Embeddings,
		model:     model,
		dimension: dimension,
		timeout:   timeout,
		policy:    retry.DefaultPolicy(),
		logger:    logger_i.NewLogger("openai_embedding"),
	}
}

func (c *Client) Dimension() int    { return c.dimension }
func (c *Client) ModelName() string { return c.model }

func (c *Client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.BatchEmbedding(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return [][]float32{}, nil
	}
	log := c.logger.WithTrace(ctx).With("model", c.model, "texts", len(chunks))

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: chunks},
		Model: openai.EmbeddingModel(c.model),
	}
	if c.dimension > 0 {
		params.Dimensions = openai.Int(int64(c.dimension))
	}

	res, err := retry.Do(ctx, c.policy, log, "openai_embedding", func(ctx context.Context) (*openai.CreateEmbeddingResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		r, err := c.api.New(callCtx, params)
		return r, retry.FromOpenAI(err)
	})
	if err != nil {
		log.Error("Error getting Embeddings from OpenAI", "error", err)
		return nil, err
	}

	// the API may reorder; Index is authoritative
	vectors := make([][]float32, len(chunks))
	for _, d := range res.Data {
		if d.Index < 0 || int(d.Index) >= len(vectors) {
			continue
		}
		v := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			v[i] = float32(f)
		}
		vectors[d.Index] = v
	}
	if err := embedding.CheckBatch(len(chunks), vectors, c.dimension); err != nil {
		return nil, err
	}
	return vectors, nil
}
