package llm

import (
	"context"
	"time"
)

// Request is one model call. JSON asks the provider for a JSON object response.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	JSON        bool
	Timeout     time.Duration
}

// Provider is a language model. Stream yields text fragments until the model is
// done, ctx is cancelled or an error is reported through errs.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Stream(ctx context.Context, req Request) (tokens <-chan string, errs <-chan error)
	ModelName() string
}

// WithTimeout applies req.Timeout, or fallback when it is unset.
func WithTimeout(ctx context.Context, req Request, fallback time.Duration) (context.Context, context.CancelFunc) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = fallback
	}
	return context.WithTimeout(ctx, timeout)
}
