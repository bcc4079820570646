package openaiLLM

import (
	"context"
	"errors"
	"net/http"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/rag/llm"
	"github.com/akolanti/ContractIntelAPI/internal/retry"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/shared"
)

type completionsAPI interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
	NewStreaming(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) *ssestream.Stream[openai.ChatCompletionChunk]
}

type Client struct {
	completions completionsAPI
	modelName   string
	policy      retry.Policy
	logger      *logger_i.Logger
}

func NewClient(apiKey string, baseURL string, modelName string, httpClient *http.Client) *Client {
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
		completions: &c.Chat.Completions,
		modelName:   modelName,
		policy:      retry.DefaultPolicy(),
		logger:      logger_i.NewLogger("llm_openai"),
	}
}

func (c *Client) ModelName() string { return c.modelName }

func (c *Client) params(req llm.Request) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	p := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.modelName),
		Messages:    messages,
		Temperature: openai.Float(float64(req.Temperature)),
	}
	if req.JSON {
		p.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return p
}

func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	log := c.logger.WithTrace(ctx).With("model", c.modelName)
	params := c.params(req)

	return retry.Do(ctx, c.policy, log, "openai_chat", func(ctx context.Context) (string, error) {
		callCtx, cancel := llm.WithTimeout(ctx, req, config.LLMTimeout)
		defer cancel()

		res, err := c.completions.New(callCtx, params)
		if err != nil {
			return "", retry.FromOpenAI(err)
		}
		if len(res.Choices) == 0 || res.Choices[0].Message.Content == "" {
			return "", errors.New("openai returned no content")
		}
		return res.Choices[0].Message.Content, nil
	})
}

func (c *Client) Stream(ctx context.Context, req llm.Request) (<-chan string, <-chan error) {
	tokens := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(tokens)
		defer close(errs)

		callCtx, cancel := llm.WithTimeout(ctx, req, config.LLMTimeout)
		defer cancel()

		stream := c.completions.NewStreaming(callCtx, c.params(req))
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			select {
			case tokens <- chunk.Choices[0].Delta.Content:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil {
			errs <- retry.FromOpenAI(err)
		}
	}()
	return tokens, errs
}
