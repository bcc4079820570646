package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/domain/jobModel"
	"github.com/akolanti/ContractIntelAPI/internal/metrics"
)

func (p *Pool) executeJob(job jobModel.Job) {
	start := time.Now()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, p.jobTimeout)
	defer cancel()
	log := p.logger.WithTrace(ctx).With("jobId", job.Id, "documentId", job.DocumentId, "attempt", job.Attempt)
	log.Debug("Processing job")

	job.Status = jobModel.JobStatusRunning
	p.saveJobState(ctx, job)

	job = p.processor.ProcessJob(ctx, job)
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()

	if job.Status == jobModel.JobStatusError && job.Error.Retry && job.Attempt < p.maxAttempts {
		p.scheduleRetry(job)
		return
	}

	job.EndTime = time.Now()
	if job.Status != jobModel.JobStatusError {
		job.Status = jobModel.JobStatusComplete
	}
	p.saveJobState(ctx, job)
	log.Info("Job finished", "status", job.Status, "step", job.CurrentStep)
}

// scheduleRetry redelivers after a backoff without holding the worker.
func (p *Pool) scheduleRetry(job jobModel.Job) {
	wait := p.retryPolicy.Delay(job.Attempt - 1)
	p.logger.Warn("Job failed with a transient error, redelivering", "jobId", job.Id, "attempt", job.Attempt, "wait", wait, "error", job.Error.Message)

	scope := p.retryScope
	if scope == nil {
		scope = context.Background()
	}
	time.AfterFunc(wait, func() {
		if scope.Err() != nil {
			return
		}
		ctx := context.WithValue(scope, config.TRACE_ID_KEY, job.TraceId)
		if err := p.jobService.Requeue(ctx, job); err != nil {
			p.logger.Error("Redelivery failed", "jobId", job.Id, "error", err)
		}
	})
}

func (p *Pool) removeWorker(reason string) {
	p.workerWaitGroup.Done()
	count := atomic.AddInt64(&p.currentWorkerCount, -1)
	p.logger.Info("Removed worker", "reason", reason, "workerCount", count)
	metrics.DecrementActiveWorkerCount()
}

func (p *Pool) saveJobState(ctx context.Context, job jobModel.Job) {
	if err := p.jobService.JobStore.SaveJob(ctx, job); err != nil {
		p.logger.Error("Failed to update job state", "jobId", job.Id, "error", err)
	}
}
