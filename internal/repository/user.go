package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"social-house-backend/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = "id, email, username, password_hash, bio, image, push_token, created_at, updated_at"

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user. Uniqueness of email and username is enforced by the
// unique indexes; a violation comes back as a ConstraintError wrapping ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, bio, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash,
		user.Bio, user.Image, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username, case-insensitively
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(username) = lower($1)`
	user, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

// FindByEmailOrUsername returns the first user matching either identifier
func (r *UserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower($1) OR lower(username) = lower($2)
		ORDER BY created_at
		LIMIT 1
	`
	user, err := scanUser(r.db.QueryRow(ctx, query, email, username))
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Update applies a partial update to a user
func (r *UserRepository) Update(ctx context.Context, id string, upd models.UserUpdate) error {
	if upd.Empty() {
		return nil
	}

	query, args, err := buildUserUpdate(id, upd, time.Now()).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user update: %w", err)
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", translate(err))
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to update user: %w", ErrNotFound)
	}
	return nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	query := `UPDATE users SET push_token = $1, updated_at = now() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to update push token: %w", ErrNotFound)
	}
	return nil
}

// SearchByUsername returns users whose username contains query, ignoring case,
// ordered by username and capped at limit
func (r *UserRepository) SearchByUsername(ctx context.Context, query, excludeID string, limit int) ([]*models.UserSummary, error) {
	sql, args, err := buildSearchQuery(query, excludeID, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build search query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	users := []*models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.Image); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func buildUserUpdate(id string, upd models.UserUpdate, now time.Time) sq.UpdateBuilder {
	b := psql.Update("users").Where(sq.Eq{"id": id})

	if upd.Username != nil {
		b = b.Set("username", *upd.Username)
	}
	if upd.Email != nil {
		b = b.Set("email", *upd.Email)
	}
	if upd.ClearBio {
		b = b.Set("bio", nil)
	} else if upd.Bio != nil {
		b = b.Set("bio", *upd.Bio)
	}
	if upd.Image != nil {
		b = b.Set("image", *upd.Image)
	}
	if upd.PasswordHash != nil {
		b = b.Set("password_hash", *upd.PasswordHash)
	}

	return b.Set("updated_at", now)
}

func buildSearchQuery(query, excludeID string, limit int) sq.SelectBuilder {
	b := psql.Select("id", "username", "image").
		From("users").
		Where("username ILIKE ?", "%"+EscapeLike(query)+"%")

	if excludeID != "" {
		b = b.Where(sq.NotEq{"id": excludeID})
	}

	return b.OrderBy("lower(username) ASC", "id ASC").Limit(uint64(limit))
}

// EscapeLike escapes LIKE metacharacters so query matches literally
func EscapeLike(query string) string {
	return likeEscaper.Replace(query)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash,
		&user.Bio, &user.Image, &user.PushToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
