package retry

import (
	"errors"

	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// FromGenAI lifts the HTTP code out of a genai error so IsTransient can see it.
func FromGenAI(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return WithStatus(err, apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return WithStatus(err, apiErrPtr.Code)
	}
	return err
}

func FromOpenAI(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return WithStatus(err, apiErr.StatusCode)
	}
	return err
}
