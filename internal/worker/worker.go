package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/domain/jobModel"
	"github.com/akolanti/ContractIntelAPI/internal/job"
	"github.com/akolanti/ContractIntelAPI/internal/metrics"
	"github.com/akolanti/ContractIntelAPI/internal/retry"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
)

// Processor runs one delivery of a job and returns it with Status and Error filled in.
type Processor interface {
	ProcessJob(ctx context.Context, job jobModel.Job) jobModel.Job
}

type Pool struct {
	jobService         *job.Service
	processor          Processor
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	currentWorkerCount int64
	minWorkerCount     int64
	maxWorkerCount     int64
	idleTimeout        time.Duration
	jobTimeout         time.Duration
	maxAttempts        int
	retryPolicy        retry.Policy
	retryScope         context.Context
	logger             *logger_i.Logger
}

type PoolConfig struct {
	JobService  *job.Service
	Processor   Processor
	Stop        chan bool
	WaitGroup   *sync.WaitGroup
	JobTimeout  time.Duration
	MaxAttempts int
}

func NewPool(cfg PoolConfig) *Pool {
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = config.JobTimeout
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = config.MaxJobAttempts
	}
	return &Pool{
		jobService:        cfg.JobService,
		processor:         cfg.Processor,
		stopWorkerChannel: cfg.Stop,
		workerWaitGroup:   cfg.WaitGroup,
		minWorkerCount:    config.MinWorkerCount,
		maxWorkerCount:    config.MaxWorkerCount,
		idleTimeout:       config.IdleWorkerTimeout,
		jobTimeout:        jobTimeout,
		maxAttempts:       maxAttempts,
		retryPolicy:       retry.Policy{MaxAttempts: maxAttempts, BaseDelay: time.Second, MaxDelay: 30 * time.Second},
		logger:            logger_i.NewLogger("worker_pool"),
	}
}

// Start launches the dispatcher. ctx bounds delayed redeliveries.
func (p *Pool) Start(ctx context.Context) {
	p.retryScope = ctx
	p.logger.Info("Initializing worker pool", "max", p.maxWorkerCount)
	go p.dispatcher()
}

func (p *Pool) WorkerCount() int64 {
	return atomic.LoadInt64(&p.currentWorkerCount)
}

func (p *Pool) dispatcher() {
	p.createWorker()
	p.logger.Info("Dispatcher started")
	for {
		select {
		case <-p.stopWorkerChannel:
			return
		case _, ok := <-p.jobService.DispatcherChannel:
			if !ok {
				return
			}
			if atomic.LoadInt64(&p.currentWorkerCount) < p.maxWorkerCount {
				p.createWorker()
			}
		}
	}
}

func (p *Pool) createWorker() {
	p.workerWaitGroup.Add(1)
	count := atomic.AddInt64(&p.currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	p.logger.Debug("Created new worker", "workerCount", count)
	go p.worker()
}

func (p *Pool) worker() {
	idle := time.NewTimer(p.idleTimeout)
	defer idle.Stop()
	for {
		select {
		case currentJob := <-p.jobService.JobChannel:
			metrics.DecrementJobsInQueue()
			p.executeJob(currentJob)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(p.idleTimeout)

		case <-p.stopWorkerChannel:
			p.removeWorker("Stop worker signal received")
			return

		case <-idle.C:
			if p.tryRetire() {
				return
			}
			idle.Reset(p.idleTimeout)
		}
	}
}

// tryRetire removes this worker unless that would drop the pool below minWorkerCount.
func (p *Pool) tryRetire() bool {
	for {
		count := atomic.LoadInt64(&p.currentWorkerCount)
		if count <= p.minWorkerCount {
			return false
		}
		if atomic.CompareAndSwapInt64(&p.currentWorkerCount, count, count-1) {
			p.workerWaitGroup.Done()
			metrics.DecrementActiveWorkerCount()
			p.logger.Info("Removed worker", "reason", "Idle worker timeout", "workerCount", count-1)
			return true
		}
	}
}
