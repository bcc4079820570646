package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/akolanti/ContractIntelAPI/internal/adapter"
	"github.com/akolanti/ContractIntelAPI/internal/api"
	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
)

// ExtractHandler godoc
// @Summary      Extract structured contract fields
// @Description  Returns the cached extraction unless force is set. Falls back to pattern extraction when the model is unavailable.
// @Tags         Extraction
// @Accept       json
// @Produce      json
// @Param        request  body      api.ExtractRequest  true  "Document id and force flag"
// @Success      200      {object}  api.ExtractResponse
// @Failure      400      {object}  api.ErrorResponse  "Malformed request"
// @Failure      404      {object}  api.ErrorResponse  "Document not found"
// @Failure      409      {object}  api.ErrorResponse  "Document not completed"
// @Router       /extract [post]
func (h *Handler) ExtractHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.ExtractRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteErrorResponse(w, r, err)
		return
	}
	if req.DocumentId == "" {
		WriteErrorResponse(w, r, apperr.InputValidation("document_id is required"))
		return
	}

	extraction, err := h.extraction.Extract(r.Context(), req.DocumentId, req.Force)
	if err != nil {
		WriteErrorResponse(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToExtractResponse(extraction))
}

// AskHandler godoc
// @Summary      Ask a question about ingested contracts
// @Description  Retrieves the most relevant chunks, answers strictly from them and returns citations built from retrieval metadata.
// @Tags         Questions
// @Accept       json
// @Produce      json
// @Param        request  body      api.AskRequest   true  "Question and optional document filter"
// @Success      200      {object}  api.AskResponse  "Answer with citations"
// @Failure      400      {object}  api.ErrorResponse  "Empty or oversized question"
// @Failure      404      {object}  api.ErrorResponse  "Unknown document id"
// @Failure      409      {object}  api.ErrorResponse  "Document not completed"
// @Failure      502      {object}  api.ErrorResponse  "Model or vector store unavailable"
// @Router       /ask [post]
func (h *Handler) AskHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.AskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteErrorResponse(w, r, err)
		return
	}

	answer, err := h.questions.Ask(r.Context(), req.Question, req.DocumentIds)
	if err != nil {
		WriteErrorResponse(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAskResponse(answer))
}

// AskStreamHandler godoc
// @Summary      Stream an answer
// @Description  Same as /ask but streams server-sent events: start, citations, token..., end. A generation failure after the stream started is sent as an error event.
// @Tags         Questions
// @Produce      text/event-stream
// @Param        question      query  string  true   "Question"
// @Param        document_ids  query  string  false  "Comma separated document ids"
// @Success      200  {string}  string  "event stream"
// @Failure      400  {object}  api.ErrorResponse  "Invalid question"
// @Router       /ask/stream [get]
func (h *Handler) AskStreamHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteErrorResponse(w, r, apperr.Internal("streaming unsupported", nil))
		return
	}

	q := r.URL.Query()
	stream, err := h.questions.AskStream(r.Context(), q.Get("question"), splitIds(q.Get("document_ids")))
	if err != nil {
		WriteErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	writeEvent(w, "start", map[string]string{"trace_id": traceId(r.Context())})
	writeEvent(w, "citations", stream.Citations)
	flusher.Flush()

	tokens := 0
	for tok := range stream.Tokens {
		writeEvent(w, "token", map[string]string{"text": tok})
		flusher.Flush()
		tokens++
	}

	if err := stream.Err(); err != nil {
		logRH.WithTrace(r.Context()).Error("Answer stream failed", "error", err, "tokens", tokens)
		writeEvent(w, "error", adapter.ToErrorBody(err))
		flusher.Flush()
		return
	}
	writeEvent(w, "end", map[string]bool{"grounded": stream.Grounded()})
	flusher.Flush()
}

func writeEvent(w http.ResponseWriter, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		logRH.Error("Error encoding event", "event", event, "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		logRH.Debug("Client went away mid stream", "event", event, "error", err)
	}
}

// AuditHandler godoc
// @Summary      Audit a contract for risky clauses
// @Description  Runs rule detectors, the model detector or both (hybrid, the default) and stores the merged findings.
// @Tags         Audit
// @Accept       json
// @Produce      json
// @Param        request  body      api.AuditRequest   true  "Document id and mode"
// @Success      200      {object}  api.AuditResponse
// @Failure      400      {object}  api.ErrorResponse  "Unknown mode"
// @Failure      404      {object}  api.ErrorResponse  "Document not found"
// @Failure      409      {object}  api.ErrorResponse  "Document not completed"
// @Router       /audit [post]
func (h *Handler) AuditHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.AuditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteErrorResponse(w, r, err)
		return
	}
	if req.DocumentId == "" {
		WriteErrorResponse(w, r, apperr.InputValidation("document_id is required"))
		return
	}

	result, err := h.audit.Audit(r.Context(), req.DocumentId, req.Mode)
	if err != nil {
		WriteErrorResponse(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAuditResponse(result))
}
