package job

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/domain/jobModel"
	"github.com/akolanti/ContractIntelAPI/internal/metrics"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
	"github.com/google/uuid"
)

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	logger            *logger_i.Logger
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		logger:            logger_i.NewLogger("job_service"),
	}
}

// Enqueue creates a processing job for documentId and hands it to the worker pool.
func (s *Service) Enqueue(ctx context.Context, documentId string) (jobModel.Job, error) {
	traceId, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	job := jobModel.Job{
		Id:          uuid.New().String(),
		DocumentId:  documentId,
		TraceId:     traceId,
		Attempt:     1,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.IngestInit,
	}
	if err := s.JobStore.SaveJob(ctx, job); err != nil {
		s.logger.WithTrace(ctx).Warn("could not persist queued job", "jobId", job.Id, "error", err)
	}
	if err := s.push(ctx, job); err != nil {
		return job, err
	}
	return job, nil
}

// Requeue redelivers a failed job with its attempt counter bumped.
func (s *Service) Requeue(ctx context.Context, job jobModel.Job) error {
	job.Attempt++
	job.Status = jobModel.JobStatusRetrying
	job.CurrentStep = jobModel.IngestInit
	if err := s.JobStore.SaveJob(ctx, job); err != nil {
		s.logger.WithTrace(ctx).Warn("could not persist retried job", "jobId", job.Id, "error", err)
	}
	return s.push(ctx, job)
}

func (s *Service) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	return s.JobStore.GetJob(ctx, jobId)
}

// JobsForDocument lists the processing history of a document, oldest first.
func (s *Service) JobsForDocument(ctx context.Context, documentId string) ([]jobModel.Job, error) {
	jobs, err := s.JobStore.JobsForDocument(ctx, documentId)
	if err != nil {
		return nil, apperr.ExternalService("job history is unavailable", err)
	}
	return jobs, nil
}

func (s *Service) push(ctx context.Context, job jobModel.Job) error {
	log := s.logger.WithTrace(ctx).With("jobId", job.Id, "documentId", job.DocumentId)
	metrics.IncrementJobsInQueue()

	// blocking send so a flood of uploads backs up into the HTTP layer
	select {
	case s.JobChannel <- job:
	case <-ctx.Done():
		metrics.DecrementJobsInQueue()
		return fmt.Errorf("enqueue job %s: %w", job.Id, ctx.Err())
	}
	log.Info("Queued job", "attempt", job.Attempt)

	// every document job may need an embedding round trip, so each one asks for a worker;
	// idle workers retire on their own
	count := atomic.AddInt64(&s.RequestCount, 1)
	select {
	case s.DispatcherChannel <- true:
		metrics.StartDispatcherSignalCount()
		log.Debug("Signalled dispatcher", "requestCount", count)
	default:
	}
	return nil
}
