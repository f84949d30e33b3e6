package repository

import (
	"context"
	"fmt"

	"social-house-backend/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PhotoRepository handles database operations for photos
type PhotoRepository struct {
	db *pgxpool.Pool
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// Create creates a new photo. An unknown owner fails on the foreign key.
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (id, user_id, image_url, caption, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		photo.ID, photo.UserID, photo.ImageURL, photo.Caption, photo.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", translate(err))
	}
	return nil
}

// ListByOwner retrieves all photos of one user, newest first
func (r *PhotoRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Photo, error) {
	return r.list(ctx, photosQuery().Where(sq.Eq{"user_id": ownerID}))
}

// ListRecent retrieves the most recent photos across all users
func (r *PhotoRepository) ListRecent(ctx context.Context, limit int) ([]*models.Photo, error) {
	return r.list(ctx, photosQuery().Limit(uint64(limit)))
}

// ListFeed retrieves every photo owned by the viewer or by anyone the viewer
// follows, with the owner's username and image
func (r *PhotoRepository) ListFeed(ctx context.Context, viewerID string) ([]*models.FeedItem, error) {
	query, args, err := buildFeedQuery(viewerID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build feed query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	defer rows.Close()

	items := []*models.FeedItem{}
	for rows.Next() {
		var item models.FeedItem
		err := rows.Scan(
			&item.ID, &item.UserID, &item.ImageURL, &item.Caption, &item.CreatedAt,
			&item.User.Username, &item.User.Image,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed item: %w", err)
		}
		item.User.ID = item.UserID
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed: %w", err)
	}

	return items, nil
}

// CountByOwner counts the photos of one user
func (r *PhotoRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM photos WHERE user_id = $1`, ownerID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return total, nil
}

func (r *PhotoRepository) list(ctx context.Context, b sq.SelectBuilder) ([]*models.Photo, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build photo query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get photos: %w", err)
	}
	defer rows.Close()

	photos := []*models.Photo{}
	for rows.Next() {
		var photo models.Photo
		err := rows.Scan(
			&photo.ID, &photo.UserID, &photo.ImageURL, &photo.Caption, &photo.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, &photo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}

	return photos, nil
}

// photosQuery orders newest first. Ids are UUIDv7, so id DESC breaks
// created_at ties in insertion order.
func photosQuery() sq.SelectBuilder {
	return psql.Select("id", "user_id", "image_url", "caption", "created_at").
		From("photos").
		OrderBy("created_at DESC", "id DESC")
}

func buildFeedQuery(viewerID string) sq.SelectBuilder {
	followees := psql.Select("followee_id").From("follows").Where(sq.Eq{"follower_id": viewerID})

	return psql.Select(
		"p.id", "p.user_id", "p.image_url", "p.caption", "p.created_at",
		"u.username", "u.image",
	).
		From("photos p").
		Join("users u ON u.id = p.user_id").
		Where(sq.Or{
			sq.Eq{"p.user_id": viewerID},
			sq.Expr("p.user_id IN (?)", followees),
		}).
		OrderBy("p.created_at DESC", "p.id DESC")
}
