package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"social-house-backend/internal/models"
	"social-house-backend/internal/repository/memory"
	"social-house-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu        sync.Mutex
	followers [][2]string
	photos    []string
}

func (n *recordingNotifier) NewFollower(followeeID, followerID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.followers = append(n.followers, [2]string{followeeID, followerID})
}

func (n *recordingNotifier) PhotoPosted(photo *models.Photo) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.photos = append(n.photos, photo.ID)
}

type testEnv struct {
	store    *memory.Store
	users    *UserService
	follows  *FollowService
	photos   *PhotoService
	feed     *FeedService
	search   *SearchService
	notifier *recordingNotifier
	mediaDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	userRepo := memory.NewUserRepository(store)
	photoRepo := memory.NewPhotoRepository(store)
	followRepo := memory.NewFollowRepository(store)

	dir := t.TempDir()
	media, err := storage.NewLocalStorage(dir, "http://localhost:8080/media")
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	search := NewSearchService(userRepo, nil, 0)

	return &testEnv{
		store:    store,
		users:    NewUserService(userRepo, followRepo, photoRepo, media, search, "test-secret", time.Hour),
		follows:  NewFollowService(followRepo, notifier),
		photos:   NewPhotoService(photoRepo, userRepo, media, notifier),
		feed:     NewFeedService(photoRepo),
		search:   search,
		notifier: notifier,
		mediaDir: dir,
	}
}

func (e *testEnv) signup(t *testing.T, username string) *models.User {
	t.Helper()
	res, err := e.users.Signup(context.Background(), SignupRequest{
		Email:    username + "@example.com",
		Username: username,
		Password: "password123",
	})
	require.NoError(t, err)
	return res.User
}

// seedUser inserts a user directly, skipping password hashing
func (e *testEnv) seedUser(t *testing.T, username string) *models.User {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	now := time.Now().UTC()
	u := &models.User{
		ID:        id.String(),
		Email:     fmt.Sprintf("%s@example.com", username),
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, memory.NewUserRepository(e.store).Create(context.Background(), u))
	return u
}

func (e *testEnv) post(t *testing.T, owner *models.User, url string) *models.Photo {
	t.Helper()
	p, err := e.photos.CreatePhoto(context.Background(), owner.ID, url, "")
	require.NoError(t, err)
	return p
}

func photoIDs(photos []*models.Photo) []string {
	ids := make([]string, 0, len(photos))
	for _, p := range photos {
		ids = append(ids, p.ID)
	}
	return ids
}

func feedIDs(items []*models.FeedItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

func usernames(users []*models.UserSummary) []string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names
}

func strPtr(s string) *string { return &s }
