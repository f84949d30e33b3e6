package memory

import (
	"context"

	"social-house-backend/internal/models"
	"social-house-backend/internal/repository"
)

// PhotoRepository is the in-memory photo table
type PhotoRepository struct {
	s *Store
}

// NewPhotoRepository creates a photo repository over s
func NewPhotoRepository(s *Store) *PhotoRepository {
	return &PhotoRepository{s: s}
}

// Create inserts a photo; the owner must exist
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[photo.UserID]; !ok {
		return repository.NewConstraintError(repository.ErrForeignKey, repository.ConstraintPhotosUser)
	}
	if photo.ImageURL == "" {
		return repository.NewConstraintError(repository.ErrCheckViolation, "photos_image_url_check")
	}

	r.s.seq++
	r.s.photos = append(r.s.photos, photoRow{photo: *photo, seq: r.s.seq})
	return nil
}

// ListByOwner retrieves all photos of one user, newest first
func (r *PhotoRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Photo, error) {
	return r.filter(0, func(p *models.Photo) bool { return p.UserID == ownerID }), nil
}

// ListRecent retrieves the most recent photos across all users
func (r *PhotoRepository) ListRecent(ctx context.Context, limit int) ([]*models.Photo, error) {
	return r.filter(limit, func(*models.Photo) bool { return true }), nil
}

// ListFeed retrieves every photo owned by the viewer or by anyone the viewer
// follows, with the owner's username and image
func (r *PhotoRepository) ListFeed(ctx context.Context, viewerID string) ([]*models.FeedItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var rows []photoRow
	for _, row := range r.s.photos {
		owner := row.photo.UserID
		if owner == viewerID {
			rows = append(rows, row)
			continue
		}
		if _, ok := r.s.follows[followKey{follower: viewerID, followee: owner}]; ok {
			rows = append(rows, row)
		}
	}

	photos := collect(rows, 0)
	items := make([]*models.FeedItem, 0, len(photos))
	for _, p := range photos {
		item := &models.FeedItem{Photo: *p}
		if owner, ok := r.s.users[p.UserID]; ok {
			item.User = models.UserSummary{ID: owner.ID, Username: owner.Username, Image: owner.Image}
		}
		items = append(items, item)
	}
	return items, nil
}

// CountByOwner counts the photos of one user
func (r *PhotoRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, row := range r.s.photos {
		if row.photo.UserID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r *PhotoRepository) filter(limit int, keep func(*models.Photo) bool) []*models.Photo {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var rows []photoRow
	for _, row := range r.s.photos {
		if keep(&row.photo) {
			rows = append(rows, row)
		}
	}
	return collect(rows, limit)
}
