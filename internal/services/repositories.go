package services

import (
	"context"

	"social-house-backend/internal/models"
)

// UserRepository is the identity store used by the services
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	SearchByUsername(ctx context.Context, query, excludeID string, limit int) ([]*models.UserSummary, error)
}

// PhotoRepository persists photos
type PhotoRepository interface {
	Create(ctx context.Context, photo *models.Photo) error
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Photo, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Photo, error)
	ListFeed(ctx context.Context, viewerID string) ([]*models.FeedItem, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

// FollowRepository persists follow edges
type FollowRepository interface {
	Create(ctx context.Context, followerID, followeeID string) (bool, error)
	Delete(ctx context.Context, followerID, followeeID string) (bool, error)
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
	ListFollowerIDs(ctx context.Context, userID string) ([]string, error)
}

// Notifier receives relationship and content events
type Notifier interface {
	NewFollower(followeeID, followerID string)
	PhotoPosted(photo *models.Photo)
}

// SearchIndex is told when a searchable user field changes
type SearchIndex interface {
	Invalidate(ctx context.Context)
}
