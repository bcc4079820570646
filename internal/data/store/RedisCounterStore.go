package store

import (
	"context"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/data/redisStore"
)

// RedisCounterStore keeps pipeline counters in a single hash so they survive restarts.
type RedisCounterStore struct {
	store *redisStore.Store
	key   string
}

func NewRedisCounterStore(store *redisStore.Store) *RedisCounterStore {
	return &RedisCounterStore{store: store, key: config.RedisCounterKey}
}

func (s *RedisCounterStore) Incr(ctx context.Context, name string, delta int64) error {
	return s.store.HashIncr(ctx, s.key, name, delta)
}

func (s *RedisCounterStore) Snapshot(ctx context.Context) (map[string]int64, error) {
	return s.store.HashGetAllInt(ctx, s.key)
}
