package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"social-house-backend/internal/models"
	"social-house-backend/internal/repository"
	"social-house-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PhotoService handles photo-related business logic
type PhotoService struct {
	photos   PhotoRepository
	users    UserRepository
	storage  storage.Storage
	notifier Notifier
	now      func() time.Time
}

// NewPhotoService creates a new photo service
func NewPhotoService(photos PhotoRepository, users UserRepository, store storage.Storage, notifier Notifier) *PhotoService {
	return &PhotoService{
		photos:   photos,
		users:    users,
		storage:  store,
		notifier: notifier,
		now:      time.Now,
	}
}

// PhotoFilter selects whose photos GET /photos lists. At most one field is
// used, in the order UserID, Username, Email.
type PhotoFilter struct {
	UserID   string
	Username string
	Email    string
}

func (f PhotoFilter) empty() bool {
	return f.UserID == "" && f.Username == "" && f.Email == ""
}

// CreatePhoto records a photo whose image is already stored at imageURL
func (s *PhotoService) CreatePhoto(ctx context.Context, ownerID, imageURL, caption string) (*models.Photo, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, newValidationError("imageUrl", "image is required")
	}
	captionText, err := normalizeCaption(caption)
	if err != nil {
		return nil, err
	}
	if !isValidID(ownerID) {
		return nil, ErrNotFound
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate photo id: %w", err)
	}

	photo := &models.Photo{
		ID:        id.String(),
		UserID:    ownerID,
		ImageURL:  imageURL,
		Caption:   captionText,
		CreatedAt: s.now().UTC(),
	}

	if err := s.photos.Create(ctx, photo); err != nil {
		switch {
		case errors.Is(err, repository.ErrForeignKey):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrCheckViolation):
			return nil, newValidationError("imageUrl", "image is required")
		default:
			return nil, fmt.Errorf("failed to create photo: %w", err)
		}
	}
	photosTotal.Inc()

	log.Info().Str("user_id", ownerID).Str("photo_id", photo.ID).Msg("Photo created")

	s.notifier.PhotoPosted(photo)

	return photo, nil
}

// Upload stores an image file and records it as a photo of ownerID
func (s *PhotoService) Upload(ctx context.Context, ownerID string, file io.Reader, size int64, caption string) (*models.Photo, error) {
	if _, err := normalizeCaption(caption); err != nil {
		return nil, err
	}
	if !isValidID(ownerID) {
		return nil, ErrNotFound
	}
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, lookupError("get photo owner", err)
	}

	key, url, err := storeImage(ctx, s.storage, "photos", ownerID, file, size)
	if err != nil {
		return nil, err
	}

	photo, err := s.CreatePhoto(ctx, ownerID, url, caption)
	if err != nil {
		discardImage(ctx, s.storage, key)
		return nil, err
	}
	return photo, nil
}

// ListByOwner retrieves the photos of one user, newest first. Unknown owners
// have no photos.
func (s *PhotoService) ListByOwner(ctx context.Context, ownerID string) ([]*models.Photo, error) {
	if !isValidID(ownerID) {
		return []*models.Photo{}, nil
	}
	photos, err := s.photos.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return nonNil(photos), nil
}

// ListRecent retrieves the most recent photos across all users. limit is
// clamped to [1, 100]; zero or less means the default of 50.
func (s *PhotoService) ListRecent(ctx context.Context, limit int) ([]*models.Photo, error) {
	switch {
	case limit <= 0:
		limit = defaultRecent
	case limit > maxRecent:
		limit = maxRecent
	}

	photos, err := s.photos.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent photos: %w", err)
	}
	return nonNil(photos), nil
}

// List resolves the filter to a user and lists their photos. Without a
// filter the most recent photos are returned; an unknown user yields none.
func (s *PhotoService) List(ctx context.Context, filter PhotoFilter) ([]*models.Photo, error) {
	if filter.empty() {
		return s.ListRecent(ctx, defaultRecent)
	}

	var (
		user *models.User
		err  error
	)
	switch {
	case filter.UserID != "":
		return s.ListByOwner(ctx, filter.UserID)
	case filter.Username != "":
		user, err = s.users.GetByUsername(ctx, strings.TrimSpace(filter.Username))
	default:
		user, err = s.users.GetByEmail(ctx, normalizeEmail(filter.Email))
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []*models.Photo{}, nil
		}
		return nil, fmt.Errorf("failed to resolve photo owner: %w", err)
	}

	return s.ListByOwner(ctx, user.ID)
}

func normalizeCaption(caption string) (*string, error) {
	c := normalizeOptional(caption)
	if c == nil {
		return nil, nil
	}
	if err := validateVar("caption", *c, fmt.Sprintf("max=%d", maxCaptionLength)); err != nil {
		return nil, err
	}
	return c, nil
}

func nonNil(photos []*models.Photo) []*models.Photo {
	if photos == nil {
		return []*models.Photo{}
	}
	return photos
}
