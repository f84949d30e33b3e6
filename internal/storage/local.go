package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LocalStorage stores objects on the local filesystem
type LocalStorage struct {
	absBasePath string
	publicURL   string
}

// NewLocalStorage creates a local storage rooted at basePath. Objects are
// addressed as publicURL + "/" + key.
func NewLocalStorage(basePath, publicURL string) (*LocalStorage, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", basePath, err)
	}

	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory '%s': %w", absPath, err)
	}

	testFile := filepath.Join(absPath, ".write_test_"+strconv.FormatInt(time.Now().UnixNano(), 10))
	f, err := os.Create(testFile)
	if err != nil {
		return nil, fmt.Errorf("local storage directory '%s' is not writable: %w", absPath, err)
	}
	_ = f.Close()
	_ = os.Remove(testFile)

	return &LocalStorage{
		absBasePath: absPath + string(os.PathSeparator),
		publicURL:   publicURL,
	}, nil
}

// Root returns the directory objects are written to
func (s *LocalStorage) Root() string {
	return s.absBasePath
}

// Put writes the object to disk
func (s *LocalStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if !IsValidKey(key) {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}

	dstPath := filepath.Join(s.absBasePath, filepath.FromSlash(key))
	if !strings.HasPrefix(dstPath, s.absBasePath) {
		return "", fmt.Errorf("invalid file path, potential directory traversal: %s", key)
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for '%s': %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dstPath), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for '%s': %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write '%s': %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close '%s': %w", key, err)
	}

	if err := os.Rename(tmp.Name(), dstPath); err != nil {
		return "", fmt.Errorf("failed to move '%s' into place: %w", key, err)
	}

	return joinURL(s.publicURL, key), nil
}

// Delete removes the object file
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if !IsValidKey(key) {
		return fmt.Errorf("invalid storage key: %s", key)
	}

	path := filepath.Join(s.absBasePath, filepath.FromSlash(key))
	if !strings.HasPrefix(path, s.absBasePath) {
		return fmt.Errorf("invalid file path, potential directory traversal: %s", key)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete '%s': %w", key, err)
	}
	return nil
}

// ctxReader stops copying once ctx is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
