package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"social-house-backend/internal/config"
)

// Storage persists uploaded objects and returns their public URL
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Delete removes an object; a missing object is not an error
	Delete(ctx context.Context, key string) error
}

// New creates the storage backend selected by cfg.Type
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	case "minio":
		return NewMinioStorage(cfg.Minio)
	case "local":
		return NewLocalStorage(cfg.Local.Path, cfg.Local.PublicURL)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// IsValidKey rejects empty keys, absolute paths and parent references
func IsValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
