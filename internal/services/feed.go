package services

import (
	"context"
	"fmt"

	"social-house-backend/internal/models"
)

// FeedService composes a viewer's home feed
type FeedService struct {
	photos PhotoRepository
}

// NewFeedService creates a new feed service
func NewFeedService(photos PhotoRepository) *FeedService {
	return &FeedService{photos: photos}
}

// ComposeFeed returns every photo of viewerID and of everyone viewerID
// follows, newest first with id as tie-breaker. Each item carries the
// owner's username and image.
func (s *FeedService) ComposeFeed(ctx context.Context, viewerID string) ([]*models.FeedItem, error) {
	if !isValidID(viewerID) {
		return nil, ErrUnauthorized
	}

	items, err := s.photos.ListFeed(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to compose feed: %w", err)
	}
	if items == nil {
		items = []*models.FeedItem{}
	}
	return items, nil
}
