package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/data/redisStore"
	"github.com/akolanti/ContractIntelAPI/internal/domain/jobModel"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
)

const (
	jobKeyPrefix         = "job:"
	documentJobKeyPrefix = "document_jobs:"
)

// RedisJobStore keeps each job as JSON under job:<id> and indexes it in a sorted set
// per document, scored by creation time. Both keys share the job TTL.
type RedisJobStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisJobStore(store *redisStore.Store) *RedisJobStore {
	return &RedisJobStore{
		store:  store,
		logger: logger_i.NewLogger("job_store"),
	}
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job %s: %w", job.Id, err)
	}

	index := ""
	if job.DocumentId != "" {
		index = documentJobKeyPrefix + job.DocumentId
	}
	err = s.store.SetIndexed(ctx, redisStore.IndexedValue{
		Key:      jobKeyPrefix + job.Id,
		Value:    data,
		TTL:      config.RedisJobStoreTTL,
		IndexKey: index,
		Member:   job.Id,
		Score:    float64(job.CreatedTime.UnixNano()),
	})
	if err != nil {
		return fmt.Errorf("saving job %s: %w", job.Id, err)
	}
	s.logger.WithTrace(ctx).Debug("Saved job", "jobId", job.Id, "status", job.Status, "step", job.CurrentStep)
	return nil
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	val, err := s.store.Get(ctx, jobKeyPrefix+jobId)
	if s.store.IsNil(err) {
		return jobModel.Job{}, false
	}
	if err != nil {
		s.logger.WithTrace(ctx).Error("Error reading job", "jobId", jobId, "error", err)
		return jobModel.Job{}, false
	}
	return s.decode(ctx, jobId, val)
}

func (s *RedisJobStore) JobsForDocument(ctx context.Context, documentId string) ([]jobModel.Job, error) {
	ids, err := s.store.IndexMembers(ctx, documentJobKeyPrefix+documentId)
	if err != nil {
		return nil, fmt.Errorf("listing jobs of %s: %w", documentId, err)
	}
	if len(ids) == 0 {
		return []jobModel.Job{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = jobKeyPrefix + id
	}
	values, err := s.store.GetMany(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("reading jobs of %s: %w", documentId, err)
	}

	jobs := make([]jobModel.Job, 0, len(values))
	for i, val := range values {
		// index entries can outlive their job key
		if val == nil {
			continue
		}
		if job, ok := s.decode(ctx, ids[i], *val); ok {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

func (s *RedisJobStore) decode(ctx context.Context, jobId string, raw string) (jobModel.Job, bool) {
	var job jobModel.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		s.logger.WithTrace(ctx).Error("Stored job is not valid JSON", "jobId", jobId, "error", err)
		return jobModel.Job{}, false
	}
	return job, true
}
