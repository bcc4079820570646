package redisStore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

// GetMany returns one entry per key, nil where the key is missing.
func (s *Store) GetMany(ctx context.Context, keys ...string) ([]*string, error) {
	raw, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*string, len(raw))
	for i, v := range raw {
		if str, ok := v.(string); ok {
			out[i] = &str
		}
	}
	return out, nil
}

func (s *Store) IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// IndexedValue is a value plus an optional sorted-set entry pointing at it.
type IndexedValue struct {
	Key      string
	Value    []byte
	TTL      time.Duration
	IndexKey string
	Member   string
	Score    float64
}

// SetIndexed writes the value and its index entry in one MULTI. The index key's
// TTL is refreshed so it lives as long as its newest member.
func (s *Store) SetIndexed(ctx context.Context, v IndexedValue) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, v.Key, v.Value, v.TTL)
		if v.IndexKey != "" {
			pipe.ZAdd(ctx, v.IndexKey, redis.Z{Score: v.Score, Member: v.Member})
			pipe.Expire(ctx, v.IndexKey, v.TTL)
		}
		return nil
	})
	return err
}

// IndexMembers lists a sorted set from lowest to highest score.
func (s *Store) IndexMembers(ctx context.Context, indexKey string) ([]string, error) {
	return s.client.ZRange(ctx, indexKey, 0, -1).Result()
}

// hash helpers back the counter store

func (s *Store) HashIncr(ctx context.Context, key string, field string, delta int64) error {
	return s.client.HIncrBy(ctx, key, field, delta).Err()
}

func (s *Store) HashGetAllInt(ctx context.Context, key string) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for field, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}
