package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"social-house-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Sender delivers a message to a connected user
type Sender interface {
	SendToUser(userID string, message Message) error
}

// Pusher delivers a mobile push notification
type Pusher interface {
	Push(ctx context.Context, deviceToken, alert string, data map[string]string) error
}

// UserLookup resolves users for push tokens and display names
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// FollowerLister lists who follows a user
type FollowerLister interface {
	ListFollowerIDs(ctx context.Context, userID string) ([]string, error)
}

// Dispatcher fans events out to websocket clients and push devices. Delivery
// runs in the background and never fails the caller.
type Dispatcher struct {
	sender    Sender
	pusher    Pusher
	users     UserLookup
	followers FollowerLister
	timeout   time.Duration
	now       func() time.Time
	wg        sync.WaitGroup
}

// NewDispatcher creates a dispatcher. pusher may be nil.
func NewDispatcher(sender Sender, pusher Pusher, users UserLookup, followers FollowerLister) *Dispatcher {
	return &Dispatcher{
		sender:    sender,
		pusher:    pusher,
		users:     users,
		followers: followers,
		timeout:   10 * time.Second,
		now:       time.Now,
	}
}

// NewFollower tells followeeID that followerID started following them
func (d *Dispatcher) NewFollower(followeeID, followerID string) {
	d.run(func(ctx context.Context) {
		msg := Message{
			Type:      TypeNewFollower,
			Timestamp: d.now().UnixMilli(),
			ActorID:   followerID,
		}

		follower, err := d.users.GetByID(ctx, followerID)
		if err == nil {
			msg.ActorUsername = follower.Username
		}

		d.send(followeeID, msg)

		if d.pusher == nil || msg.ActorUsername == "" {
			return
		}

		followee, err := d.users.GetByID(ctx, followeeID)
		if err != nil || followee.PushToken == nil || *followee.PushToken == "" {
			return
		}

		alert := fmt.Sprintf("%s started following you", msg.ActorUsername)
		if err := d.pusher.Push(ctx, *followee.PushToken, alert, map[string]string{
			"type":    TypeNewFollower,
			"actorId": followerID,
		}); err != nil {
			log.Warn().Err(err).Str("user_id", followeeID).Msg("Failed to push new follower notification")
		}
	})
}

// PhotoPosted tells the owner's followers about a new photo
func (d *Dispatcher) PhotoPosted(photo *models.Photo) {
	p := *photo
	d.run(func(ctx context.Context) {
		followerIDs, err := d.followers.ListFollowerIDs(ctx, p.UserID)
		if err != nil {
			log.Error().Err(err).Str("user_id", p.UserID).Msg("Failed to list followers for photo notification")
			return
		}

		msg := Message{
			Type:      TypePhotoPosted,
			Timestamp: p.CreatedAt.UnixMilli(),
			ActorID:   p.UserID,
			PhotoID:   p.ID,
			ImageURL:  p.ImageURL,
		}
		if owner, err := d.users.GetByID(ctx, p.UserID); err == nil {
			msg.ActorUsername = owner.Username
		}

		for _, id := range followerIDs {
			d.send(id, msg)
		}
	})
}

// Wait blocks until all in-flight deliveries finish
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(fn func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		fn(ctx)
	}()
}

func (d *Dispatcher) send(userID string, msg Message) {
	err := d.sender.SendToUser(userID, msg)
	if err == nil || errors.Is(err, ErrNotConnected) {
		return
	}
	log.Warn().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to deliver websocket notification")
}

// Nop discards all events
type Nop struct{}

func (Nop) NewFollower(followeeID, followerID string) {}

func (Nop) PhotoPosted(photo *models.Photo) {}
