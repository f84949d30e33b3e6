package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pngData = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00"

func TestCreatePhoto(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedUser(t, "alice")

	p, err := env.photos.CreatePhoto(ctx, alice.ID, "http://x/1.jpg", "  sunset  ")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, p.UserID)
	require.NotNil(t, p.Caption)
	assert.Equal(t, "sunset", *p.Caption)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, []string{p.ID}, env.notifier.photos)

	p, err = env.photos.CreatePhoto(ctx, alice.ID, "http://x/2.jpg", "   ")
	require.NoError(t, err)
	assert.Nil(t, p.Caption)
}

func TestCreatePhoto_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedUser(t, "alice")

	_, err := env.photos.CreatePhoto(ctx, alice.ID, "  ", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.photos.CreatePhoto(ctx, uuid.NewString(), "http://x/1.jpg", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.photos.CreatePhoto(ctx, "alice", "http://x/1.jpg", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.photos.CreatePhoto(ctx, alice.ID, "http://x/1.jpg", strings.Repeat("c", 2201))
	assert.ErrorIs(t, err, ErrValidation)

	photos, err := env.photos.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, photos)
	assert.Empty(t, env.notifier.photos)
}

func TestListByOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")

	p1 := env.post(t, alice, "http://x/1.jpg")
	env.post(t, bob, "http://x/2.jpg")
	p3 := env.post(t, alice, "http://x/3.jpg")

	photos, err := env.photos.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p3.ID, p1.ID}, photoIDs(photos))

	photos, err = env.photos.ListByOwner(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.NotNil(t, photos)
	assert.Empty(t, photos)
}

func TestListRecent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedUser(t, "alice")

	// identical timestamps fall back to insertion order
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	env.photos.now = func() time.Time { return fixed }

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, env.post(t, alice, "http://x/p.jpg").ID)
	}

	photos, err := env.photos.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{ids[2], ids[1]}, photoIDs(photos))

	photos, err = env.photos.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, photos, 3)

	photos, err = env.photos.ListRecent(ctx, 1000)
	require.NoError(t, err)
	assert.Len(t, photos, 3)
}

func TestListRecent_DefaultLimit(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	for i := 0; i < defaultRecent+5; i++ {
		env.post(t, alice, "http://x/p.jpg")
	}

	photos, err := env.photos.List(context.Background(), PhotoFilter{})
	require.NoError(t, err)
	assert.Len(t, photos, defaultRecent)
}

func TestListWithFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")
	p1 := env.post(t, alice, "http://x/1.jpg")
	env.post(t, bob, "http://x/2.jpg")

	tests := []struct {
		name   string
		filter PhotoFilter
		want   []string
	}{
		{"by id", PhotoFilter{UserID: alice.ID}, []string{p1.ID}},
		{"by username", PhotoFilter{Username: "Alice"}, []string{p1.ID}},
		{"by email", PhotoFilter{Email: "ALICE@example.com"}, []string{p1.ID}},
		{"unknown username", PhotoFilter{Username: "nobody"}, []string{}},
		{"unknown email", PhotoFilter{Email: "nobody@example.com"}, []string{}},
		{"malformed id", PhotoFilter{UserID: "alice"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			photos, err := env.photos.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, photoIDs(photos))
		})
	}
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedUser(t, "alice")

	p, err := env.photos.Upload(ctx, alice.ID, strings.NewReader(pngData), int64(len(pngData)), "first")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.ImageURL, "http://localhost:8080/media/photos/"+alice.ID+"/"))
	assert.Equal(t, []string{p.ID}, env.notifier.photos)

	_, err = env.photos.Upload(ctx, alice.ID, strings.NewReader("<html></html>"), 13, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.photos.Upload(ctx, alice.ID, strings.NewReader(""), 0, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.photos.Upload(ctx, uuid.NewString(), strings.NewReader(pngData), int64(len(pngData)), "")
	assert.ErrorIs(t, err, ErrNotFound)

	photos, err := env.photos.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, photos, 1)
}
