package notify

import (
	"context"
	"fmt"

	"social-house-backend/internal/config"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// APNsPusher sends alerts through Apple Push Notification service using
// token-based authentication
type APNsPusher struct {
	client *apns2.Client
	topic  string
}

// NewAPNsPusher creates a pusher. It returns nil without error when no key
// file is configured.
func NewAPNsPusher(cfg config.APNsConfig) (*APNsPusher, error) {
	if cfg.KeyFile == "" {
		return nil, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsPusher{client: client, topic: cfg.Topic}, nil
}

// Push delivers an alert to one device
func (p *APNsPusher) Push(ctx context.Context, deviceToken, alert string, data map[string]string) error {
	pl := payload.NewPayload().Alert(alert).Sound("default")
	for k, v := range data {
		pl = pl.Custom(k, v)
	}

	res, err := p.client.PushWithContext(ctx, &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Payload:     pl,
	})
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("push rejected: %d %s", res.StatusCode, res.Reason)
	}
	return nil
}
