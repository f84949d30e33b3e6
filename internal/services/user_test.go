package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.users.Signup(ctx, SignupRequest{
		Email:    "  Alice@Example.COM ",
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.NotEqual(t, "password123", res.User.PasswordHash)
	assert.NotEmpty(t, res.Token)

	userID, err := env.users.ValidateJWT(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, userID)

	found, err := env.users.FindByEmailOrUsername(ctx, "ALICE@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, found.ID)
}

func TestSignup_Conflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice")

	tests := []struct {
		name  string
		req   SignupRequest
		field string
	}{
		{"same email other case", SignupRequest{Email: "ALICE@example.com", Username: "alice2", Password: "password123"}, "email"},
		{"same username other case", SignupRequest{Email: "other@example.com", Username: "ALICE", Password: "password123"}, "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Signup(ctx, tt.req)
			require.ErrorIs(t, err, ErrConflict)

			var conflict *ConflictError
			require.True(t, errors.As(err, &conflict))
			assert.Equal(t, tt.field, conflict.Field)
		})
	}

	_, err := env.users.FindByEmailOrUsername(ctx, "other@example.com", "alice2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSignup_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   SignupRequest
		field string
	}{
		{"missing email", SignupRequest{Username: "alice", Password: "password123"}, "email"},
		{"malformed email", SignupRequest{Email: "alice", Username: "alice", Password: "password123"}, "email"},
		{"email without tld", SignupRequest{Email: "alice@localhost", Username: "alice", Password: "password123"}, "email"},
		{"short username", SignupRequest{Email: "a@example.com", Username: "al", Password: "password123"}, "username"},
		{"long username", SignupRequest{Email: "a@example.com", Username: strings.Repeat("a", 31), Password: "password123"}, "username"},
		{"username with space", SignupRequest{Email: "a@example.com", Username: "al ice", Password: "password123"}, "username"},
		{"short password", SignupRequest{Email: "a@example.com", Username: "alice", Password: "short"}, "password"},
		{"password over 72 bytes", SignupRequest{Email: "a@example.com", Username: "alice", Password: strings.Repeat("é", 40)}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Signup(ctx, tt.req)
			require.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	_, err := env.users.GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signup(t, "alice")

	res, err := env.users.Login(ctx, LoginRequest{Email: "ALICE@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, res.User.ID)

	res, err = env.users.Login(ctx, LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, res.User.ID)

	_, err = env.users.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.users.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.users.Login(ctx, LoginRequest{Password: "password123"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidateJWT(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")

	token, err := env.users.GenerateJWT(alice.ID)
	require.NoError(t, err)

	_, err = env.users.ValidateJWT(token + "x")
	assert.ErrorIs(t, err, ErrUnauthorized)

	other := NewUserService(nil, nil, nil, nil, nil, "other-secret", time.Hour)
	_, err = other.ValidateJWT(token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	env.users.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := env.users.GenerateJWT(alice.ID)
	require.NoError(t, err)
	_, err = env.users.ValidateJWT(expired)
	assert.ErrorIs(t, err, ErrUnauthorized)

	env.users.now = time.Now
	notUUID, err := env.users.GenerateJWT("alice")
	require.NoError(t, err)
	_, err = env.users.ValidateJWT(notUUID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdateProfile_Bio(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedUser(t, "alice")

	require.NoError(t, env.users.UpdateBio(ctx, alice.ID, "hello"))
	me, err := env.users.Me(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, me.Bio)
	assert.Equal(t, "hello", *me.Bio)

	require.NoError(t, env.users.UpdateBio(ctx, alice.ID, "   "))
	me, err = env.users.Me(ctx, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, me.Bio)

	err = env.users.UpdateBio(ctx, alice.ID, strings.Repeat("x", 151))
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, env.users.UpdateBio(ctx, alice.ID, strings.Repeat("é", 150)))
}

func TestUpdateProfile_Fields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signup(t, "alice")
	env.seedUser(t, "bob")

	err := env.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: strPtr("BOB")})
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "username", conflict.Field)

	// a valid field next to an invalid one is not written
	err = env.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{
		Username: strPtr("alicia"),
		Email:    strPtr("not-an-email"),
	})
	require.ErrorIs(t, err, ErrValidation)
	user, err := env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	err = env.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Password: strPtr("short")})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, env.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{
		Username: strPtr("alicia"),
		Email:    strPtr("Alicia@Example.com"),
		Password: strPtr("new-password"),
		Bio:      strPtr(" hi "),
	}))

	user, err = env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", user.Username)
	assert.Equal(t, "alicia@example.com", user.Email)
	require.NotNil(t, user.Bio)
	assert.Equal(t, "hi", *user.Bio)

	_, err = env.users.Login(ctx, LoginRequest{Username: "alicia", Password: "new-password"})
	assert.NoError(t, err)

	// empty strings leave fields unchanged
	require.NoError(t, env.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{
		Username: strPtr(""),
		Password: strPtr(""),
	}))
	user, err = env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", user.Username)

	err = env.users.UpdateProfile(ctx, "00000000-0000-0000-0000-000000000000", ProfileUpdate{Bio: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMeAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")
	carol := env.seedUser(t, "carol")

	require.NoError(t, env.follows.Follow(ctx, bob.ID, alice.ID))
	require.NoError(t, env.follows.Follow(ctx, carol.ID, alice.ID))
	require.NoError(t, env.follows.Follow(ctx, alice.ID, bob.ID))
	env.post(t, alice, "http://x/1.jpg")

	me, err := env.users.Me(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, 2, me.FollowerCount)
	assert.Equal(t, 1, me.FollowingCount)

	stats, err := env.users.Stats(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Followers)
	assert.Equal(t, 1, stats.Following)
	assert.Equal(t, 1, stats.Photos)

	_, err = env.users.Stats(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.users.Me(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")
	p1 := env.post(t, alice, "http://x/1.jpg")

	require.NoError(t, env.follows.Follow(ctx, bob.ID, alice.ID))

	profile, err := env.users.Profile(ctx, "alice", bob.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsFollowing)
	assert.False(t, profile.IsSelf)
	assert.Equal(t, 1, profile.FollowerCount)
	assert.Equal(t, []string{p1.ID}, photoIDs(profile.Photos))

	profile, err = env.users.Profile(ctx, "alice", "")
	require.NoError(t, err)
	assert.False(t, profile.IsFollowing)

	profile, err = env.users.Profile(ctx, "bob", bob.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsSelf)
	assert.NotNil(t, profile.Photos)
	assert.Empty(t, profile.Photos)

	_, err = env.users.Profile(ctx, "nobody", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetProfileImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedUser(t, "alice")

	url, err := env.users.SetProfileImage(ctx, alice.ID, strings.NewReader(pngData), int64(len(pngData)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/media/profile-pictures/"+alice.ID+"/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	rel := strings.TrimPrefix(url, "http://localhost:8080/media/")
	data, err := os.ReadFile(filepath.Join(env.mediaDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, pngData, string(data))

	user, err := env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, user.Image)
	assert.Equal(t, url, *user.Image)

	_, err = env.users.SetProfileImage(ctx, alice.ID, strings.NewReader("plain text"), 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdatePushToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedUser(t, "alice")

	require.NoError(t, env.users.UpdatePushToken(ctx, alice.ID, "device-token"))
	user, err := env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, user.PushToken)
	assert.Equal(t, "device-token", *user.PushToken)

	require.NoError(t, env.users.UpdatePushToken(ctx, alice.ID, ""))
	user, err = env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, user.PushToken)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)

	ok, err := VerifyPassword(hash, "password123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "password124")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("not-a-hash", "password123")
	assert.Error(t, err)
}

func TestUpdateProfile_PasswordByteLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signup(t, "alice")

	// 40 runes, 80 bytes
	long := strings.Repeat("é", 40)
	err := env.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Password: &long})
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "password", verr.Field)

	// 36 runes, 72 bytes
	fits := strings.Repeat("é", 36)
	require.NoError(t, env.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Password: &fits}))

	_, err = env.users.Login(ctx, LoginRequest{Email: "alice@example.com", Password: fits})
	assert.NoError(t, err)
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrValidation)
}
