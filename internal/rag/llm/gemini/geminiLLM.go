package gemini

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/rag/llm"
	"github.com/akolanti/ContractIntelAPI/internal/retry"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
	"google.golang.org/genai"
)

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

type Client struct {
	models    generator
	modelName string
	policy    retry.Policy
}

var logger *logger_i.Logger
var geminiClient *Client
var once sync.Once

func GetGeminiClient(ctx context.Context, apikey string, modelName string) *Client {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, apikey, modelName)
	})
	return geminiClient
}

func newGeminiClient(ctx context.Context, apikey string, modelName string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		logger.Error("Error creating Gemini client", "error", err)
		return
	}
	geminiClient = &Client{models: c.Models, modelName: modelName, policy: retry.DefaultPolicy()}
	logger.Info("Gemini client created", "model", modelName)
	go closeClient(ctx)
}

func closeClient(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Gemini client")
}

func (c *Client) ModelName() string { return c.modelName }

func (c *Client) contentConfig(req llm.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	log := logger.WithTrace(ctx).With("model", c.modelName)
	if c.models == nil {
		return "", errors.New("gemini client is closed")
	}

	return retry.Do(ctx, c.policy, log, "gemini_generate", func(ctx context.Context) (string, error) {
		callCtx, cancel := llm.WithTimeout(ctx, req, config.LLMTimeout)
		defer cancel()

		result, err := c.models.GenerateContent(callCtx, c.modelName, genai.Text(req.Prompt), c.contentConfig(req))
		if err != nil {
			return "", retry.FromGenAI(err)
		}
		if result == nil {
			return "", errors.New("gemini returned no candidates")
		}
		text := result.Text()
		if text == "" {
			return "", errors.New("gemini returned empty text")
		}
		return text, nil
	})
}

// Stream is not retried; a stream that fails halfway cannot be replayed to the caller.
func (c *Client) Stream(ctx context.Context, req llm.Request) (<-chan string, <-chan error) {
	tokens := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(tokens)
		defer close(errs)
		if c.models == nil {
			errs <- errors.New("gemini client is closed")
			return
		}

		callCtx, cancel := llm.WithTimeout(ctx, req, config.LLMTimeout)
		defer cancel()

		for chunk, err := range c.models.GenerateContentStream(callCtx, c.modelName, genai.Text(req.Prompt), c.contentConfig(req)) {
			if err != nil {
				errs <- retry.FromGenAI(err)
				return
			}
			if chunk == nil {
				continue
			}
			text := chunk.Text()
			if text == "" {
				continue
			}
			select {
			case tokens <- text:
			case <-ctx.Done():
				return
			}
		}
	}()
	return tokens, errs
}
