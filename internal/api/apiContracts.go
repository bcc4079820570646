package api

import (
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/domain/commonModels"
	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
)

type ErrorBody struct {
	Kind    string `json:"kind" example:"not_found"`
	Message string `json:"message" example:"document not found"`
}

type ErrorResponse struct {
	Error   ErrorBody `json:"error"`
	TraceId string    `json:"trace_id,omitempty" example:"2f7c6a0e-1b7d-4c39-a8b8-0d5f3f1e9b21"`
}

// DocumentHandle is returned for every accepted upload, duplicate or not.
type DocumentHandle struct {
	DocumentId string `json:"document_id" example:"8a3e0f0b-4c2d-4f6e-9b1a-5d7c8e9f0a1b"`
	Filename   string `json:"filename" example:"msa.pdf"`
	Status     string `json:"status" example:"pending"`
	Duplicate  bool   `json:"duplicate"`
	JobId      string `json:"job_id,omitempty"`
	StatusURL  string `json:"status_url"`
}

type IngestFileError struct {
	Filename string    `json:"filename"`
	Error    ErrorBody `json:"error"`
}

type IngestResponse struct {
	Documents []DocumentHandle  `json:"documents"`
	Errors    []IngestFileError `json:"errors,omitempty"`
}

type DocumentResponse struct {
	DocumentId      string     `json:"document_id"`
	Filename        string     `json:"filename"`
	FileSize        int64      `json:"file_size"`
	Status          string     `json:"status" example:"completed"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	PageCount       int        `json:"page_count"`
	TotalCharacters int        `json:"total_characters"`
	UploadedAt      time.Time  `json:"uploaded_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
}

type JobResponse struct {
	Id          string    `json:"id" example:"job_cz109"`
	DocumentId  string    `json:"document_id"`
	Status      string    `json:"status" example:"COMPLETE"`
	CurrentStep string    `json:"current_step" example:"EmbeddingAPI"`
	Attempt     int       `json:"attempt"`
	Error       *JobError `json:"error,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time,omitempty"`
}

type DocumentJobsResponse struct {
	DocumentId string        `json:"document_id"`
	Jobs       []JobResponse `json:"jobs"`
}

type JobError struct {
	Message string `json:"message" example:"embedding batch failed"`
	Retry   bool   `json:"can_retry" example:"true"`
}

type ExtractResponse struct {
	DocumentId string               `json:"document_id"`
	Fields     contractModel.Fields `json:"fields"`
	Method     string               `json:"extraction_method" example:"model"`
	ModelUsed  string               `json:"model_used,omitempty"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

type AskResponse struct {
	Answer    string                  `json:"answer"`
	Citations []commonModels.Citation `json:"citations"`
	Grounded  bool                    `json:"grounded"`
}

type AuditResponse struct {
	DocumentId string                  `json:"document_id"`
	Mode       string                  `json:"mode" example:"hybrid"`
	Findings   []contractModel.Finding `json:"findings"`
	Partial    bool                    `json:"partial"`
	Warnings   []string                `json:"warnings,omitempty"`
}

type FindingsResponse struct {
	DocumentId string                  `json:"document_id"`
	Findings   []contractModel.Finding `json:"findings"`
}

type HealthResponse struct {
	Status     string            `json:"status" example:"ok"`
	Components map[string]string `json:"components"`
}

type ExtractionStats struct {
	Total       int            `json:"total"`
	ByMethod    map[string]int `json:"by_method"`
	SuccessRate float64        `json:"success_rate"`
}

type StatsResponse struct {
	Documents  map[string]int   `json:"documents"`
	Extraction ExtractionStats  `json:"extraction"`
	Counters   map[string]int64 `json:"counters"`
}

// requests---------------------

type ExtractRequest struct {
	DocumentId string `json:"document_id" validate:"required"`
	Force      bool   `json:"force,omitempty"`
}

type AskRequest struct {
	Question    string   `json:"question" validate:"required"`
	DocumentIds []string `json:"document_ids,omitempty"`
}

type AuditRequest struct {
	DocumentId string `json:"document_id" validate:"required"`
	Mode       string `json:"mode,omitempty" example:"hybrid"`
}
