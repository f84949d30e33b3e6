package memory

import (
	"context"
	"sort"
	"strings"

	"social-house-backend/internal/models"
	"social-house-backend/internal/repository"
)

// UserRepository is the in-memory user table
type UserRepository struct {
	s *Store
}

// NewUserRepository creates a user repository over s
func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{s: s}
}

// Create inserts a user, rejecting duplicate emails and usernames
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkUnique(user.ID, user.Email, user.Username); err != nil {
		return err
	}

	r.s.users[user.ID] = copyUser(user)
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return fold(u.Email) == fold(email) })
}

// GetByUsername retrieves a user by username, case-insensitively
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return fold(u.Username) == fold(username) })
}

// FindByEmailOrUsername returns the oldest user matching either identifier
func (r *UserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool {
		return fold(u.Email) == fold(email) || fold(u.Username) == fold(username)
	})
}

// Update applies a partial update
func (r *UserRepository) Update(ctx context.Context, id string, upd models.UserUpdate) error {
	if upd.Empty() {
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}

	email, username := u.Email, u.Username
	if upd.Email != nil {
		email = *upd.Email
	}
	if upd.Username != nil {
		username = *upd.Username
	}
	if err := r.checkUnique(id, email, username); err != nil {
		return err
	}

	next := copyUser(u)
	next.Email = email
	next.Username = username
	if upd.ClearBio {
		next.Bio = nil
	} else if upd.Bio != nil {
		bio := *upd.Bio
		next.Bio = &bio
	}
	if upd.Image != nil {
		image := *upd.Image
		next.Image = &image
	}
	if upd.PasswordHash != nil {
		next.PasswordHash = *upd.PasswordHash
	}
	next.UpdatedAt = r.s.now()

	r.s.users[id] = next
	return nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	next := copyUser(u)
	next.PushToken = pushToken
	r.s.users[userID] = next
	return nil
}

// SearchByUsername returns users whose username contains query, ignoring case
func (r *UserRepository) SearchByUsername(ctx context.Context, query, excludeID string, limit int) ([]*models.UserSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	needle := fold(query)
	var matches []*models.User
	for _, u := range r.s.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(fold(u.Username), needle) {
			matches = append(matches, u)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := fold(matches[i].Username), fold(matches[j].Username)
		if a != b {
			return a < b
		}
		return matches[i].ID < matches[j].ID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]*models.UserSummary, 0, len(matches))
	for _, u := range matches {
		out = append(out, &models.UserSummary{ID: u.ID, Username: u.Username, Image: u.Image})
	}
	return out, nil
}

func (r *UserRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var found *models.User
	for _, u := range r.s.users {
		if !match(u) {
			continue
		}
		if found == nil || u.CreatedAt.Before(found.CreatedAt) {
			found = u
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return copyUser(found), nil
}

// checkUnique must be called with the write lock held
func (r *UserRepository) checkUnique(id, email, username string) error {
	for _, u := range r.s.users {
		if u.ID == id {
			continue
		}
		if fold(u.Email) == fold(email) {
			return repository.NewConstraintError(repository.ErrDuplicate, repository.ConstraintUsersEmail)
		}
		if fold(u.Username) == fold(username) {
			return repository.NewConstraintError(repository.ErrDuplicate, repository.ConstraintUsersUsername)
		}
	}
	return nil
}
