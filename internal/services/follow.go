package services

import (
	"context"
	"errors"
	"fmt"

	"social-house-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// FollowService manages the follow graph
type FollowService struct {
	follows  FollowRepository
	notifier Notifier
}

// NewFollowService creates a new follow service
func NewFollowService(follows FollowRepository, notifier Notifier) *FollowService {
	return &FollowService{
		follows:  follows,
		notifier: notifier,
	}
}

// Follow creates the edge followerID -> followeeID. Following someone twice
// is a no-op; following yourself is rejected.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == "" {
		return ErrUnauthorized
	}
	if followeeID == "" {
		return newValidationError("userId", "userId is required")
	}
	if followerID == followeeID {
		return fmt.Errorf("%w: cannot follow yourself", ErrInvalidOperation)
	}
	if !isValidID(followerID) || !isValidID(followeeID) {
		return ErrNotFound
	}

	created, err := s.follows.Create(ctx, followerID, followeeID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrForeignKey):
			return ErrNotFound
		case errors.Is(err, repository.ErrCheckViolation):
			return fmt.Errorf("%w: cannot follow yourself", ErrInvalidOperation)
		default:
			return fmt.Errorf("failed to follow: %w", err)
		}
	}

	if created {
		followsTotal.WithLabelValues("follow").Inc()
		log.Info().Str("follower_id", followerID).Str("followee_id", followeeID).Msg("User followed")
		s.notifier.NewFollower(followeeID, followerID)
	}

	return nil
}

// Unfollow removes the edge if present
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if followerID == "" {
		return ErrUnauthorized
	}
	if followeeID == "" {
		return newValidationError("userId", "userId is required")
	}
	if !isValidID(followerID) || !isValidID(followeeID) {
		return nil
	}

	deleted, err := s.follows.Delete(ctx, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}

	if deleted {
		followsTotal.WithLabelValues("unfollow").Inc()
		log.Info().Str("follower_id", followerID).Str("followee_id", followeeID).Msg("User unfollowed")
	}

	return nil
}

// IsFollowing reports whether followerID follows followeeID
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	if !isValidID(followerID) || !isValidID(followeeID) {
		return false, nil
	}
	ok, err := s.follows.Exists(ctx, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return ok, nil
}

// CountFollowers returns how many users follow userID, 0 for unknown users
func (s *FollowService) CountFollowers(ctx context.Context, userID string) (int, error) {
	if !isValidID(userID) {
		return 0, nil
	}
	n, err := s.follows.CountFollowers(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count followers: %w", err)
	}
	return n, nil
}

// CountFollowing returns how many users userID follows, 0 for unknown users
func (s *FollowService) CountFollowing(ctx context.Context, userID string) (int, error) {
	if !isValidID(userID) {
		return 0, nil
	}
	n, err := s.follows.CountFollowing(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count following: %w", err)
	}
	return n, nil
}
