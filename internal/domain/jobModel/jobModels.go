package jobModel

import (
	"context"
	"time"
)

type JobStatus string

// InternalStatus is the pipeline step a job is on, reported as current_step.
type InternalStatus string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusRetrying JobStatus = "RETRYING"
	JobStatusError    JobStatus = "ERROR"
)

const (
	IngestInit     InternalStatus = "IngestInit"
	PageExtraction InternalStatus = "PageExtraction"
	Chunking       InternalStatus = "Chunking"
	EmbeddingCall  InternalStatus = "EmbeddingAPI"
	VectorDBCall   InternalStatus = "VectorDB"
	ExtractionCall InternalStatus = "Extraction"
	Complete       InternalStatus = "Complete"
	Error          InternalStatus = "Error"
)

// Job is one processing run of a document. Redelivery keeps the Id and bumps Attempt;
// a reprocess request starts a new Job.
type Job struct {
	Id          string         `json:"id"`
	DocumentId  string         `json:"document_id"`
	TraceId     string         `json:"trace_id"`
	Attempt     int            `json:"attempt"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

// Finished is true once no worker will pick the job up again.
func (j Job) Finished() bool {
	return j.Status == JobStatusComplete || (j.Status == JobStatusError && !j.Error.Retry)
}

type JobError struct {
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	// JobsForDocument returns the jobs recorded for a document, oldest first.
	// Expired jobs are skipped.
	JobsForDocument(ctx context.Context, documentId string) ([]Job, error)
}
