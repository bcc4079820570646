package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/domain/jobModel"
)

// InMemoryJobStore mirrors the redis store for single-process runs. Finished jobs
// are dropped once they are older than the TTL, checked on every save.
type InMemoryJobStore struct {
	mu         sync.RWMutex
	jobs       map[string]jobModel.Job
	byDocument map[string]map[string]struct{}
	ttl        time.Duration
	now        func() time.Time
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return NewInMemoryJobStore(config.RedisJobStoreTTL, time.Now)
}

func NewInMemoryJobStore(ttl time.Duration, now func() time.Time) *InMemoryJobStore {
	return &InMemoryJobStore{
		jobs:       make(map[string]jobModel.Job),
		byDocument: make(map[string]map[string]struct{}),
		ttl:        ttl,
		now:        now,
	}
}

func (s *InMemoryJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.jobs[job.Id] = job
	if job.DocumentId != "" {
		ids, ok := s.byDocument[job.DocumentId]
		if !ok {
			ids = make(map[string]struct{})
			s.byDocument[job.DocumentId] = ids
		}
		ids[job.Id] = struct{}{}
	}
	return nil
}

func (s *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, found := s.jobs[jobId]
	if found && s.expired(job) {
		return jobModel.Job{}, false
	}
	return job, found
}

func (s *InMemoryJobStore) JobsForDocument(ctx context.Context, documentId string) ([]jobModel.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]jobModel.Job, 0, len(s.byDocument[documentId]))
	for id := range s.byDocument[documentId] {
		if job, ok := s.jobs[id]; ok && !s.expired(job) {
			out = append(out, job)
		}
	}
	sortByCreated(out)
	return out, nil
}

func (s *InMemoryJobStore) expired(job jobModel.Job) bool {
	return job.Finished() && !job.EndTime.IsZero() && s.now().Sub(job.EndTime) > s.ttl
}

// sweep must run under the write lock.
func (s *InMemoryJobStore) sweep() {
	for id, job := range s.jobs {
		if !s.expired(job) {
			continue
		}
		delete(s.jobs, id)
		if ids := s.byDocument[job.DocumentId]; ids != nil {
			delete(ids, id)
			if len(ids) == 0 {
				delete(s.byDocument, job.DocumentId)
			}
		}
	}
}

func sortByCreated(jobs []jobModel.Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].CreatedTime.Equal(jobs[j].CreatedTime) {
			return jobs[i].Id < jobs[j].Id
		}
		return jobs[i].CreatedTime.Before(jobs[j].CreatedTime)
	})
}
