package redisStore

import (
	"context"
	"fmt"
	"sync"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

var logger = logger_i.NewLogger("redis_store")

// Options selects one logical redis database.
type Options struct {
	Addr     string
	Password string
	DB       int
}

type Store struct {
	client *redis.Client
	DB     int
}

type registry struct {
	mu        sync.Mutex
	stores    map[int]*Store
	closeOnce sync.Once
}

var shared = &registry{stores: make(map[int]*Store)}

// Shared returns the process-wide store for opts.DB and dials it on first use.
// Every shared client is closed when the ctx of the first successful dial ends.
func Shared(ctx context.Context, opts Options) (*Store, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if s, ok := shared.stores[opts.DB]; ok {
		return s, nil
	}
	s, err := Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	shared.stores[opts.DB] = s
	shared.closeOnce.Do(func() { go shared.closeAll(ctx) })
	return s, nil
}

// Open dials a dedicated client and pings it.
func Open(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  opts.Addr,
		Password:              opts.Password,
		DB:                    opts.DB,
		ContextTimeoutEnabled: true,
		DialTimeout:           config.RedisDialTimeout,
		ReadTimeout:           config.RedisIOTimeout,
		WriteTimeout:          config.RedisIOTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, config.RedisDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s db %d: %w", opts.Addr, opts.DB, err)
	}

	logger.Info("Redis store ready", "addr", opts.Addr, "db", opts.DB)
	return &Store{client: client, DB: opts.DB}, nil
}

func (r *registry) closeAll(ctx context.Context) {
	<-ctx.Done()
	r.mu.Lock()
	defer r.mu.Unlock()
	for db, s := range r.stores {
		if err := s.client.Close(); err != nil {
			logger.Error("Error closing redis client", "db", db, "error", err)
		}
		delete(r.stores, db)
	}
	logger.Info("Redis stores closed")
}

// NewTestStore wraps an existing client, for miniredis backed tests.
func NewTestStore(client *redis.Client) *Store {
	return &Store{client: client}
}
