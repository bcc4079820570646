package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/data/redisStore"
	"github.com/akolanti/ContractIntelAPI/internal/data/store"
	"github.com/akolanti/ContractIntelAPI/internal/domain/jobModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redisStore.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, redisStore.NewTestStore(client)
}

func TestRedisJobStore_Lifecycle(t *testing.T) {
	mr, internalStore := newRedis(t)
	jobStore := store.NewRedisJobStore(internalStore)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	jobID := "job_abc_123"

	testJob := jobModel.Job{
		Id:          jobID,
		DocumentId:  "doc-1",
		Status:      jobModel.JobStatusRunning,
		CurrentStep: jobModel.Chunking,
		Attempt:     1,
	}

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		if err := jobStore.SaveJob(ctx, testJob); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}

		retrievedJob, found := jobStore.GetJob(ctx, jobID)
		if !found {
			t.Fatal("Job was saved but not found in Redis")
		}
		if retrievedJob.DocumentId != testJob.DocumentId || retrievedJob.CurrentStep != jobModel.Chunking {
			t.Errorf("Data mismatch! Got %+v, want %+v", retrievedJob, testJob)
		}
		if ttl := mr.TTL("job:" + jobID); ttl != config.RedisJobStoreTTL {
			t.Errorf("TTL = %v, want %v", ttl, config.RedisJobStoreTTL)
		}
	})

	t.Run("Get Non-Existent Job", func(t *testing.T) {
		if _, found := jobStore.GetJob(ctx, "ghost-id"); found {
			t.Error("Expected found=false for non-existent key")
		}
	})

	t.Run("Corrupt payload is not found", func(t *testing.T) {
		_ = mr.Set("job:broken", "{not json")
		if _, found := jobStore.GetJob(ctx, "broken"); found {
			t.Error("Expected found=false for corrupt payload")
		}
	})

	t.Run("Indexed by document", func(t *testing.T) {
		if !mr.Exists("document_jobs:doc-1") {
			t.Fatal("document index not written")
		}
		if ttl := mr.TTL("document_jobs:doc-1"); ttl != config.RedisJobStoreTTL {
			t.Errorf("index TTL = %v, want %v", ttl, config.RedisJobStoreTTL)
		}
	})
}

func TestRedisJobStore_JobsForDocument(t *testing.T) {
	mr, internalStore := newRedis(t)
	jobStore := store.NewRedisJobStore(internalStore)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_ = jobStore.SaveJob(ctx, jobModel.Job{Id: "second", DocumentId: "doc-1", CreatedTime: base.Add(time.Minute)})
	_ = jobStore.SaveJob(ctx, jobModel.Job{Id: "first", DocumentId: "doc-1", CreatedTime: base})
	_ = jobStore.SaveJob(ctx, jobModel.Job{Id: "other", DocumentId: "doc-2", CreatedTime: base})
	// saving again must not duplicate the index entry
	_ = jobStore.SaveJob(ctx, jobModel.Job{Id: "first", DocumentId: "doc-1", CreatedTime: base, Status: jobModel.JobStatusComplete})

	jobs, err := jobStore.JobsForDocument(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 || jobs[0].Id != "first" || jobs[1].Id != "second" {
		t.Fatalf("got %+v", jobs)
	}
	if jobs[0].Status != jobModel.JobStatusComplete {
		t.Errorf("stale job returned: %+v", jobs[0])
	}

	t.Run("expired job key is skipped", func(t *testing.T) {
		mr.Del("job:second")
		jobs, err := jobStore.JobsForDocument(ctx, "doc-1")
		if err != nil {
			t.Fatal(err)
		}
		if len(jobs) != 1 || jobs[0].Id != "first" {
			t.Errorf("got %+v", jobs)
		}
	})

	t.Run("unknown document", func(t *testing.T) {
		jobs, err := jobStore.JobsForDocument(ctx, "nope")
		if err != nil || jobs == nil || len(jobs) != 0 {
			t.Errorf("got %+v, %v", jobs, err)
		}
	})
}

func TestRedisJobStore_Race(t *testing.T) {
	_, internalStore := newRedis(t)
	jobStore := store.NewRedisJobStore(internalStore)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "race-trace")
	job := jobModel.Job{Id: "race-job"}

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = jobStore.SaveJob(ctx, job)
			_, _ = jobStore.GetJob(ctx, "race-job")
		}()
	}
	wg.Wait()

	if _, found := jobStore.GetJob(ctx, "race-job"); !found {
		t.Error("job lost under concurrent writes")
	}
}

func TestInMemoryJobStore(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := store.NewInMemoryJobStore(time.Hour, func() time.Time { return now })
	ctx := context.Background()

	_ = s.SaveJob(ctx, jobModel.Job{Id: "j2", DocumentId: "d", Status: jobModel.JobStatusQueued, CreatedTime: now})
	_ = s.SaveJob(ctx, jobModel.Job{Id: "j1", DocumentId: "d", Status: jobModel.JobStatusComplete, CreatedTime: now.Add(-time.Minute), EndTime: now})

	got, ok := s.GetJob(ctx, "j2")
	if !ok || got.Status != jobModel.JobStatusQueued {
		t.Fatalf("got %+v, %v", got, ok)
	}
	jobs, _ := s.JobsForDocument(ctx, "d")
	if len(jobs) != 2 || jobs[0].Id != "j1" {
		t.Fatalf("got %+v", jobs)
	}

	// finished jobs expire, running ones never do
	now = now.Add(2 * time.Hour)
	if _, ok := s.GetJob(ctx, "j1"); ok {
		t.Error("finished job should have expired")
	}
	if _, ok := s.GetJob(ctx, "j2"); !ok {
		t.Error("queued job must not expire")
	}
	_ = s.SaveJob(ctx, jobModel.Job{Id: "j3", DocumentId: "other", CreatedTime: now})
	jobs, _ = s.JobsForDocument(ctx, "d")
	if len(jobs) != 1 || jobs[0].Id != "j2" {
		t.Errorf("got %+v", jobs)
	}
}
