package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"social-house-backend/internal/cache"
	"social-house-backend/internal/models"
	"social-house-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_Scenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob_alibi")
	env.seedUser(t, "carol")

	results, err := env.search.Search(ctx, "ali", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, usernames(results))
	assert.Equal(t, alice.ID, results[0].ID)

	results, err = env.search.Search(ctx, "ALI", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob_alibi"}, usernames(results))
}

func TestSearch_ShortQuery(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice")

	for _, q := range []string{"", " ", "a", "  a  "} {
		results, err := env.search.Search(context.Background(), q, "")
		require.NoError(t, err, q)
		assert.NotNil(t, results, q)
		assert.Empty(t, results, q)
	}
}

func TestSearch_CapAndOrder(t *testing.T) {
	env := newTestEnv(t)
	for i := 11; i >= 0; i-- {
		env.seedUser(t, fmt.Sprintf("user%02d", i))
	}

	results, err := env.search.Search(context.Background(), "user", "")
	require.NoError(t, err)
	require.Len(t, results, maxSearchResults)
	assert.Equal(t, "user00", results[0].Username)
	assert.Equal(t, "user09", results[9].Username)
}

func TestSearch_LikeMetacharacters(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "a_b")
	env.seedUser(t, "axb")

	results, err := env.search.Search(context.Background(), "a_", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b"}, usernames(results))
}

type failingUsers struct {
	UserRepository
}

func (failingUsers) SearchByUsername(ctx context.Context, query, excludeID string, limit int) ([]*models.UserSummary, error) {
	return nil, errors.New("connection refused")
}

func TestSearch_Degraded(t *testing.T) {
	s := NewSearchService(failingUsers{}, nil, 0)

	results, err := s.Search(context.Background(), "alice", "")
	assert.ErrorIs(t, err, ErrInternal)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string][]byte)
	}
	c.data[key] = value
	c.sets++
	return nil
}

func (c *mapCache) Close() error { return nil }

func (c *mapCache) Name() string { return "map" }

func TestSearch_Cached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := &mapCache{}
	s := NewSearchService(memory.NewUserRepository(env.store), c, time.Minute)

	var users []*models.User
	for i := 0; i < 11; i++ {
		users = append(users, env.seedUser(t, fmt.Sprintf("ali%02d", i)))
	}

	results, err := s.Search(ctx, "ALI", users[0].ID)
	require.NoError(t, err)
	require.Len(t, results, maxSearchResults)
	assert.Equal(t, "ali01", results[0].Username)
	assert.Equal(t, "ali10", results[9].Username)
	assert.Equal(t, 1, c.sets)

	// served from the cache, with a different caller excluded
	results, err = s.Search(ctx, "ali", users[5].ID)
	require.NoError(t, err)
	require.Len(t, results, maxSearchResults)
	assert.Equal(t, "ali00", results[0].Username)
	assert.NotContains(t, usernames(results), "ali05")
	assert.Equal(t, 1, c.sets)
}

func TestSearch_CacheInvalidatedOnUserChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := &mapCache{}
	userRepo := memory.NewUserRepository(env.store)
	search := NewSearchService(userRepo, c, time.Minute)
	users := NewUserService(userRepo, memory.NewFollowRepository(env.store), memory.NewPhotoRepository(env.store),
		nil, search, "test-secret", time.Hour)

	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")

	results, err := search.Search(ctx, "ali", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, usernames(results))

	renamed := "zed"
	require.NoError(t, users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: &renamed}))

	results, err = search.Search(ctx, "ali", bob.ID)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = search.Search(ctx, "zed", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"zed"}, usernames(results))

	// new accounts are visible before the ttl runs out
	_, err = users.Signup(ctx, SignupRequest{Email: "alicia@example.com", Username: "alicia", Password: "password123"})
	require.NoError(t, err)

	results, err = search.Search(ctx, "ali", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alicia"}, usernames(results))
}
