// Package memory is an in-process implementation of the repositories. It
// enforces the same unique, foreign key and check constraints as the postgres
// schema and is used by the "memory" database driver and by tests.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"social-house-backend/internal/models"
)

type followKey struct {
	follower string
	followee string
}

type photoRow struct {
	photo models.Photo
	seq   uint64
}

// Store holds all tables behind one lock
type Store struct {
	mu      sync.RWMutex
	users   map[string]*models.User
	photos  []photoRow
	follows map[followKey]time.Time
	seq     uint64
	now     func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:   make(map[string]*models.User),
		follows: make(map[followKey]time.Time),
		now:     time.Now,
	}
}

// sortPhotos orders newest first, later insertions first on equal timestamps
func sortPhotos(rows []photoRow) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].photo.CreatedAt.Equal(rows[j].photo.CreatedAt) {
			return rows[i].photo.CreatedAt.After(rows[j].photo.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
}

func collect(rows []photoRow, limit int) []*models.Photo {
	sortPhotos(rows)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	out := make([]*models.Photo, 0, len(rows))
	for _, r := range rows {
		p := r.photo
		out = append(out, &p)
	}
	return out
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func fold(s string) string {
	return strings.ToLower(s)
}
