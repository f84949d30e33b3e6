package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FollowRepository handles database operations for follow edges
type FollowRepository struct {
	db *pgxpool.Pool
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *pgxpool.Pool) *FollowRepository {
	return &FollowRepository{db: db}
}

// Create inserts the follower -> followee edge. An existing edge is left alone
// and reported with created == false.
func (r *FollowRepository) Create(ctx context.Context, followerID, followeeID string) (bool, error) {
	query := `
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to create follow: %w", translate(err))
	}
	return result.RowsAffected() == 1, nil
}

// Delete removes the edge if present and reports whether a row was deleted
func (r *FollowRepository) Delete(ctx context.Context, followerID, followeeID string) (bool, error) {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`
	result, err := r.db.Exec(ctx, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to delete follow: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// Exists checks whether follower follows followee
func (r *FollowRepository) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, followerID, followeeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return exists, nil
}

// CountFollowers counts the users following userID
func (r *FollowRepository) CountFollowers(ctx context.Context, userID string) (int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM follows WHERE followee_id = $1`, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count followers: %w", err)
	}
	return total, nil
}

// CountFollowing counts the users userID follows
func (r *FollowRepository) CountFollowing(ctx context.Context, userID string) (int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM follows WHERE follower_id = $1`, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count following: %w", err)
	}
	return total, nil
}

// ListFollowerIDs returns the ids of every user following userID
func (r *FollowRepository) ListFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT follower_id FROM follows WHERE followee_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan follower: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating followers: %w", err)
	}

	return ids, nil
}
