package models

import "time"

// User represents an account
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Bio          *string   `json:"bio"`
	Image        *string   `json:"image"`
	PushToken    *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserSummary is the public projection of a user used in search results
type UserSummary struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Image    *string `json:"image"`
}

// UserUpdate is a partial update of a user; nil fields are left untouched.
// ClearBio sets bio to NULL and takes precedence over Bio.
type UserUpdate struct {
	Username     *string
	Email        *string
	Bio          *string
	ClearBio     bool
	Image        *string
	PasswordHash *string
}

// Empty reports whether the update changes nothing
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil && u.Bio == nil && !u.ClearBio &&
		u.Image == nil && u.PasswordHash == nil
}

// Photo represents an uploaded photo
type Photo struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ImageURL  string    `json:"imageUrl"`
	Caption   *string   `json:"caption"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedItem is a feed photo together with its owner's public fields
type FeedItem struct {
	Photo
	User UserSummary `json:"user"`
}

// Follow represents a directed follower -> followee edge
type Follow struct {
	FollowerID string    `json:"followerId"`
	FolloweeID string    `json:"followeeId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserStats holds relationship and content counts for a user
type UserStats struct {
	Followers int `json:"followers"`
	Following int `json:"following"`
	Photos    int `json:"photos"`
}
