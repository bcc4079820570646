package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/akolanti/ContractIntelAPI/internal/adapter"
	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
)

const maxJSONBody = 1 << 20

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response", "error", err)
	}
}

func traceId(ctx context.Context) string {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}

func validateContext(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		logRH.WithTrace(ctx).Warn("context error", "error", err)
		return false
	}
	return true
}

// decodeJSON reads one JSON object and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.WithTrace(r.Context()).Warn("Couldn't close request body", "error", err)
		}
	}(body)

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.InputValidation("request body is empty")
		case errors.As(err, &syntaxErr):
			return apperr.InputValidation(fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset))
		case errors.As(err, &typeErr):
			return apperr.InputValidation(fmt.Sprintf("field %q has the wrong type", typeErr.Field))
		case strings.HasPrefix(err.Error(), "json: unknown field"):
			return apperr.InputValidation(strings.TrimPrefix(err.Error(), "json: "))
		default:
			return apperr.InputValidation("request body is not valid JSON")
		}
	}
	return nil
}

// WriteErrorResponse maps err to its status code and writes the user-safe message.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	log := logRH.WithTrace(r.Context()).With("path", r.URL.Path, "kind", apperr.KindOf(err))
	switch apperr.KindOf(err) {
	case apperr.KindInternal, apperr.KindExternalService:
		log.Error("Request failed", "error", err)
	default:
		log.Warn("Request rejected", "error", err)
	}
	writeJsonResponse(w, apperr.HTTPStatus(err), adapter.ToErrorResponse(err, traceId(r.Context())))
}

// WriteFailure is for rejections that never reach a service, such as rate limiting.
func WriteFailure(w http.ResponseWriter, httpCode int, kind apperr.Kind, message string, trace string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(kind, message, trace))
}

func splitIds(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
