package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Memory is an in-process cache backed by ristretto. Each entry costs 1, so
// maxItems bounds the number of cached keys.
type Memory struct {
	client *ristretto.Cache
}

// NewMemory creates a ristretto cache holding up to maxItems entries
func NewMemory(maxItems int64) (*Memory, error) {
	if maxItems <= 0 {
		maxItems = 10000
	}

	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	return &Memory{client: client}, nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	value, found := m.client.Get(key)
	if !found {
		return nil, ErrCacheMiss
	}
	data, ok := value.([]byte)
	if !ok {
		return nil, ErrCacheMiss
	}
	return data, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.client.SetWithTTL(key, value, 1, ttl) {
		// make the value visible to the next Get
		m.client.Wait()
	}
	return nil
}

func (m *Memory) Close() error {
	m.client.Close()
	return nil
}

func (m *Memory) Name() string {
	return "memory"
}
