package store

import (
	"context"
	"maps"
	"sync"
)

type InMemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

func InitInMemoryCounterStore() *InMemoryCounterStore {
	return &InMemoryCounterStore{counters: make(map[string]int64)}
}

func (s *InMemoryCounterStore) Incr(ctx context.Context, name string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name] += delta
	return nil
}

func (s *InMemoryCounterStore) Snapshot(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.counters), nil
}
