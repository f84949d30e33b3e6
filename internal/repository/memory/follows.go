package memory

import (
	"context"

	"social-house-backend/internal/repository"
)

// FollowRepository is the in-memory follow edge table
type FollowRepository struct {
	s *Store
}

// NewFollowRepository creates a follow repository over s
func NewFollowRepository(s *Store) *FollowRepository {
	return &FollowRepository{s: s}
}

// Create inserts the edge unless it already exists
func (r *FollowRepository) Create(ctx context.Context, followerID, followeeID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if followerID == followeeID {
		return false, repository.NewConstraintError(repository.ErrCheckViolation, repository.ConstraintFollowsNoSelf)
	}
	if _, ok := r.s.users[followerID]; !ok {
		return false, repository.NewConstraintError(repository.ErrForeignKey, repository.ConstraintFollowsFollower)
	}
	if _, ok := r.s.users[followeeID]; !ok {
		return false, repository.NewConstraintError(repository.ErrForeignKey, repository.ConstraintFollowsFollowee)
	}

	key := followKey{follower: followerID, followee: followeeID}
	if _, ok := r.s.follows[key]; ok {
		return false, nil
	}
	r.s.follows[key] = r.s.now()
	return true, nil
}

// Delete removes the edge if present
func (r *FollowRepository) Delete(ctx context.Context, followerID, followeeID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := followKey{follower: followerID, followee: followeeID}
	if _, ok := r.s.follows[key]; !ok {
		return false, nil
	}
	delete(r.s.follows, key)
	return true, nil
}

// Exists checks whether follower follows followee
func (r *FollowRepository) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.follows[followKey{follower: followerID, followee: followeeID}]
	return ok, nil
}

// CountFollowers counts the users following userID
func (r *FollowRepository) CountFollowers(ctx context.Context, userID string) (int, error) {
	return r.count(func(k followKey) bool { return k.followee == userID }), nil
}

// CountFollowing counts the users userID follows
func (r *FollowRepository) CountFollowing(ctx context.Context, userID string) (int, error) {
	return r.count(func(k followKey) bool { return k.follower == userID }), nil
}

// ListFollowerIDs returns the ids of every user following userID
func (r *FollowRepository) ListFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var ids []string
	for k := range r.s.follows {
		if k.followee == userID {
			ids = append(ids, k.follower)
		}
	}
	return ids, nil
}

func (r *FollowRepository) count(match func(followKey) bool) int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for k := range r.s.follows {
		if match(k) {
			n++
		}
	}
	return n
}
