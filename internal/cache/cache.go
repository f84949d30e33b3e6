package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"social-house-backend/internal/config"
)

// ErrCacheMiss is returned by Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// Cache stores opaque byte values with a TTL
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
	Name() string
}

// New creates the cache selected by cfg.Type. A nil Cache is returned for "none".
func New(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemory(cfg.MaxItems)
	case "redis":
		return NewRedis(ctx, RedisConfig{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}
