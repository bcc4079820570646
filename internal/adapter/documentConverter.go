package adapter

import (
	"fmt"

	"github.com/akolanti/ContractIntelAPI/internal/api"
	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/internal/rag"
	"github.com/akolanti/ContractIntelAPI/internal/rag/ingest"
)

func ToDocumentHandle(h ingest.Handle) api.DocumentHandle {
	return api.DocumentHandle{
		DocumentId: h.Id,
		Filename:   h.Filename,
		Status:     string(h.Status),
		Duplicate:  h.Duplicate,
		JobId:      h.JobId,
		StatusURL:  fmt.Sprintf("/documents/%s", h.Id),
	}
}

func ToDocumentResponse(doc documentModel.Document) api.DocumentResponse {
	return api.DocumentResponse{
		DocumentId:      doc.Id,
		Filename:        doc.Filename,
		FileSize:        doc.FileSize,
		Status:          string(doc.Status),
		ErrorMessage:    doc.ErrorMessage,
		PageCount:       doc.PageCount,
		TotalCharacters: doc.TotalCharacters,
		UploadedAt:      doc.UploadedAt,
		ProcessedAt:     doc.ProcessedAt,
	}
}

func ToExtractResponse(e contractModel.Extraction) api.ExtractResponse {
	return api.ExtractResponse{
		DocumentId: e.DocumentId,
		Fields:     e.Fields,
		Method:     string(e.Method),
		ModelUsed:  e.ModelUsed,
		UpdatedAt:  e.UpdatedAt,
	}
}

func ToAskResponse(a rag.Answer) api.AskResponse {
	return api.AskResponse{
		Answer:    a.Answer,
		Citations: a.Citations,
		Grounded:  a.Grounded,
	}
}

func ToAuditResponse(r contractModel.AuditResult) api.AuditResponse {
	findings := r.Findings
	if findings == nil {
		findings = []contractModel.Finding{}
	}
	return api.AuditResponse{
		DocumentId: r.DocumentId,
		Mode:       string(r.Mode),
		Findings:   findings,
		Partial:    r.Partial,
		Warnings:   r.Warnings,
	}
}

func ToStatsResponse(byStatus map[documentModel.Status]int, stats contractModel.ExtractionStats, counters map[string]int64) api.StatsResponse {
	docs := make(map[string]int, 4)
	for _, s := range []documentModel.Status{documentModel.StatusPending, documentModel.StatusProcessing, documentModel.StatusCompleted, documentModel.StatusFailed} {
		docs[string(s)] = byStatus[s]
	}
	methods := make(map[string]int, len(stats.ByMethod))
	for m, n := range stats.ByMethod {
		methods[string(m)] = n
	}
	if counters == nil {
		counters = map[string]int64{}
	}
	return api.StatsResponse{
		Documents: docs,
		Extraction: api.ExtractionStats{
			Total:       stats.Total,
			ByMethod:    methods,
			SuccessRate: stats.SuccessRate(),
		},
		Counters: counters,
	}
}

func ToErrorBody(err error) api.ErrorBody {
	return api.ErrorBody{
		Kind:    string(apperr.KindOf(err)),
		Message: apperr.PublicMessage(err),
	}
}

func ToErrorResponse(err error, traceId string) api.ErrorResponse {
	return api.ErrorResponse{Error: ToErrorBody(err), TraceId: traceId}
}

// BadRequest is for failures raised before a service is involved, e.g. by middleware.
func BadRequest(kind apperr.Kind, message string, traceId string) api.ErrorResponse {
	return api.ErrorResponse{
		Error:   api.ErrorBody{Kind: string(kind), Message: message},
		TraceId: traceId,
	}
}
