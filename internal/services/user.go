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

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// UserService handles accounts, sessions and profiles
type UserService struct {
	users     UserRepository
	follows   FollowRepository
	photos    PhotoRepository
	storage   storage.Storage
	search    SearchIndex
	jwtSecret string
	jwtTTL    time.Duration
	now       func() time.Time
}

// NewUserService creates a new user service. search may be nil.
func NewUserService(
	users UserRepository,
	follows FollowRepository,
	photos PhotoRepository,
	store storage.Storage,
	search SearchIndex,
	jwtSecret string,
	jwtTTL time.Duration,
) *UserService {
	return &UserService{
		users:     users,
		follows:   follows,
		photos:    photos,
		storage:   store,
		search:    search,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		now:       time.Now,
	}
}

// SignupRequest is the body of POST /signup
type SignupRequest struct {
	Email    string `json:"email" validate:"required,max=254,email,tld"`
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=8,bcryptlen"`
}

// LoginRequest is the body of POST /login. Either email or username identifies
// the account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required_without=Username"`
	Username string `json:"username"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by signup and login
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// ProfileUpdate is the body of PATCH /settings. Absent or empty username,
// email and password leave the field unchanged; an empty bio clears it.
type ProfileUpdate struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Bio      *string `json:"bio"`
	Password *string `json:"password"`
}

// MeResponse is the authenticated user's own view
type MeResponse struct {
	ID             string  `json:"id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	Image          *string `json:"image"`
	Bio            *string `json:"bio"`
	FollowerCount  int     `json:"followerCount"`
	FollowingCount int     `json:"followingCount"`
}

// Profile is the public view of a user
type Profile struct {
	ID             string          `json:"id"`
	Username       string          `json:"username"`
	Image          *string         `json:"image"`
	Bio            *string         `json:"bio"`
	CreatedAt      time.Time       `json:"createdAt"`
	FollowerCount  int             `json:"followerCount"`
	FollowingCount int             `json:"followingCount"`
	PhotoCount     int             `json:"photoCount"`
	Photos         []*models.Photo `json:"photos"`
	IsFollowing    bool            `json:"isFollowing"`
	IsSelf         bool            `json:"isSelf"`
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.jwtTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse token: %v", ErrUnauthorized, err)
	}

	if !token.Valid {
		return "", fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: invalid token claims", ErrUnauthorized)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || !isValidID(userID) {
		return "", fmt.Errorf("%w: user_id not found in token", ErrUnauthorized)
	}

	return userID, nil
}

// Signup creates an account. Uniqueness is enforced by the store, a
// concurrent duplicate fails with a ConflictError.
func (s *UserService) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	req.Email = normalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user id: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           id.String(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, userWriteError("create user", err)
	}
	signupsTotal.Inc()
	s.searchChanged(ctx)

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User signed up")

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a token
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var (
		user *models.User
		err  error
	)
	if req.Email != "" {
		user, err = s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	} else {
		user, err = s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			loginsTotal.WithLabelValues("rejected").Inc()
			return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		loginsTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	loginsTotal.WithLabelValues("accepted").Inc()

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token}, nil
}

// FindByEmailOrUsername returns the first user matching either identifier
func (s *UserService) FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	user, err := s.users.FindByEmailOrUsername(ctx, normalizeEmail(email), strings.TrimSpace(username))
	if err != nil {
		return nil, lookupError("find user", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if !isValidID(userID) {
		return nil, ErrNotFound
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError("get user", err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username, ignoring case
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrNotFound
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, lookupError("get user", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email, ignoring case
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrNotFound
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, lookupError("get user", err)
	}
	return user, nil
}

// UpdateProfile validates every present field before writing any of them
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req ProfileUpdate) error {
	if !isValidID(userID) {
		return ErrNotFound
	}

	var upd models.UserUpdate

	if req.Username != nil {
		if username := strings.TrimSpace(*req.Username); username != "" {
			if err := validateVar("username", username, "username"); err != nil {
				return err
			}
			upd.Username = &username
		}
	}

	if req.Email != nil {
		if email := normalizeEmail(*req.Email); email != "" {
			if err := validateVar("email", email, "max=254,email,tld"); err != nil {
				return err
			}
			upd.Email = &email
		}
	}

	if req.Bio != nil {
		bio := normalizeOptional(*req.Bio)
		if bio == nil {
			upd.ClearBio = true
		} else {
			if err := validateVar("bio", *bio, fmt.Sprintf("max=%d", maxBioLength)); err != nil {
				return err
			}
			upd.Bio = bio
		}
	}

	if req.Password != nil && *req.Password != "" {
		if err := validateVar("password", *req.Password, fmt.Sprintf("min=%d,bcryptlen", minPasswordLen)); err != nil {
			return err
		}
		hash, err := HashPassword(*req.Password)
		if err != nil {
			return err
		}
		upd.PasswordHash = &hash
	}

	if upd.Empty() {
		if _, err := s.GetByID(ctx, userID); err != nil {
			return err
		}
		return nil
	}

	if err := s.users.Update(ctx, userID, upd); err != nil {
		return userWriteError("update user", err)
	}
	if upd.Username != nil {
		s.searchChanged(ctx)
	}

	log.Info().Str("user_id", userID).Msg("Profile updated")
	return nil
}

// UpdateBio sets the bio; blank input clears it
func (s *UserService) UpdateBio(ctx context.Context, userID, bio string) error {
	return s.UpdateProfile(ctx, userID, ProfileUpdate{Bio: &bio})
}

// SetProfileImage stores an uploaded image and makes it the profile picture
func (s *UserService) SetProfileImage(ctx context.Context, userID string, file io.Reader, size int64) (string, error) {
	if _, err := s.GetByID(ctx, userID); err != nil {
		return "", err
	}

	key, url, err := storeImage(ctx, s.storage, "profile-pictures", userID, file, size)
	if err != nil {
		return "", err
	}

	if err := s.users.Update(ctx, userID, models.UserUpdate{Image: &url}); err != nil {
		discardImage(ctx, s.storage, key)
		return "", userWriteError("set profile image", err)
	}
	s.searchChanged(ctx)

	log.Info().Str("user_id", userID).Str("url", url).Msg("Profile image updated")
	return url, nil
}

func (s *UserService) searchChanged(ctx context.Context) {
	if s.search != nil {
		s.search.Invalidate(ctx)
	}
}

// UpdatePushToken stores the device token used for push notifications; an
// empty token removes it
func (s *UserService) UpdatePushToken(ctx context.Context, userID, pushToken string) error {
	if !isValidID(userID) {
		return ErrNotFound
	}
	if err := validateVar("pushToken", strings.TrimSpace(pushToken), "max=200"); err != nil {
		return err
	}
	if err := s.users.UpdatePushToken(ctx, userID, normalizeOptional(pushToken)); err != nil {
		return lookupError("update push token", err)
	}
	return nil
}

// Me returns the authenticated user with relationship counts
func (s *UserService) Me(ctx context.Context, userID string) (*MeResponse, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var followers, following int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.follows.CountFollowers(gctx, user.ID)
		followers = n
		return err
	})
	g.Go(func() error {
		n, err := s.follows.CountFollowing(gctx, user.ID)
		following = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to count follows: %w", err)
	}

	return &MeResponse{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		Image:          user.Image,
		Bio:            user.Bio,
		FollowerCount:  followers,
		FollowingCount: following,
	}, nil
}

// Stats returns follower, following and photo counts for a username
func (s *UserService) Stats(ctx context.Context, username string) (*models.UserStats, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	var stats models.UserStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.follows.CountFollowers(gctx, user.ID)
		stats.Followers = n
		return err
	})
	g.Go(func() error {
		n, err := s.follows.CountFollowing(gctx, user.ID)
		stats.Following = n
		return err
	})
	g.Go(func() error {
		n, err := s.photos.CountByOwner(gctx, user.ID)
		stats.Photos = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	return &stats, nil
}

// Profile returns the public profile of username as seen by viewerID, which
// may be empty for anonymous viewers
func (s *UserService) Profile(ctx context.Context, username, viewerID string) (*Profile, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		ID:        user.ID,
		Username:  user.Username,
		Image:     user.Image,
		Bio:       user.Bio,
		CreatedAt: user.CreatedAt,
		IsSelf:    viewerID == user.ID,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.follows.CountFollowers(gctx, user.ID)
		p.FollowerCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.follows.CountFollowing(gctx, user.ID)
		p.FollowingCount = n
		return err
	})
	g.Go(func() error {
		photos, err := s.photos.ListByOwner(gctx, user.ID)
		p.Photos = photos
		return err
	})
	if isValidID(viewerID) && !p.IsSelf {
		g.Go(func() error {
			ok, err := s.follows.Exists(gctx, viewerID, user.ID)
			p.IsFollowing = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	if p.Photos == nil {
		p.Photos = []*models.Photo{}
	}
	p.PhotoCount = len(p.Photos)

	return p, nil
}

// userWriteError maps store constraint failures on users to service errors
func userWriteError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		switch repository.ConstraintName(err) {
		case repository.ConstraintUsersEmail:
			return &ConflictError{Field: "email"}
		case repository.ConstraintUsersUsername:
			return &ConflictError{Field: "username"}
		default:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	case errors.Is(err, repository.ErrCheckViolation):
		return newValidationError(repository.ConstraintName(err), "invalid value")
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

// lookupError maps a missing record to ErrNotFound
func lookupError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// isValidID reports whether id is a well-formed UUID. Malformed ids never
// reach the database and are treated as unknown.
func isValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
