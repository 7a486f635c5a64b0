package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisBackend stores drafts as Redis string values.
type RedisBackend struct {
	rdb goredis.UniversalClient
	ttl time.Duration
}

var _ Backend = (*RedisBackend)(nil)

// RedisOptions configures NewRedisBackend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// TTL expires drafts after inactivity. Zero keeps them forever.
	TTL time.Duration
}

// NewRedisBackend connects to Redis and verifies the connection with a ping.
func NewRedisBackend(ctx context.Context, opts RedisOptions) (*RedisBackend, error) {
	if opts.Addr == "" {
		return nil, errors.New("draft: redis address is required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("draft: redis ping: %w", err)
	}
	return NewRedisBackendWithClient(rdb, opts.TTL), nil
}

// NewRedisBackendWithClient wraps an existing client.
func NewRedisBackendWithClient(client goredis.UniversalClient, ttl time.Duration) *RedisBackend {
	return &RedisBackend{rdb: client, ttl: ttl}
}

func (b *RedisBackend) Put(ctx context.Context, key string, data []byte) error {
	if b == nil || b.rdb == nil {
		return ErrClosed
	}
	if err := b.rdb.Set(ctx, key, data, b.ttl).Err(); err != nil {
		return fmt.Errorf("draft: redis set: %w", err)
	}
	return nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if b == nil || b.rdb == nil {
		return nil, false, ErrClosed
	}
	data, err := b.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("draft: redis get: %w", err)
	}
	return data, true, nil
}

// Close releases the client.
func (b *RedisBackend) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
