package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"social-house-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	sniffLen       = 512
	discardTimeout = 10 * time.Second
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// sniffImage detects the image type from the first bytes of r and returns a
// reader that still yields the whole stream
func sniffImage(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", nil, newValidationError("file", "file is required")
	}

	contentType := http.DetectContentType(head)
	if _, ok := imageExtensions[contentType]; !ok {
		return "", nil, newValidationError("file", "file must be a JPEG, PNG, GIF or WebP image")
	}

	return contentType, io.MultiReader(bytes.NewReader(head), r), nil
}

// storeImage uploads an image under prefix/ownerID/ and returns its key and URL
func storeImage(ctx context.Context, store storage.Storage, prefix, ownerID string, file io.Reader, size int64) (string, string, error) {
	if file == nil || size == 0 {
		return "", "", newValidationError("file", "file is required")
	}

	contentType, body, err := sniffImage(file)
	if err != nil {
		return "", "", err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate object id: %w", err)
	}
	key := fmt.Sprintf("%s/%s/%s%s", prefix, ownerID, id.String(), imageExtensions[contentType])

	url, err := store.Put(ctx, key, body, size, contentType)
	if err != nil {
		return "", "", fmt.Errorf("failed to store image: %w", err)
	}
	return key, url, nil
}

// discardImage removes an object whose database row was never written. It
// runs even when ctx is already canceled.
func discardImage(ctx context.Context, store storage.Storage, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()

	if err := store.Delete(ctx, key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to remove orphaned object")
		return
	}
	log.Warn().Str("key", key).Msg("Removed orphaned object")
}
