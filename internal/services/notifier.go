package services

import (
	"fmt"

	"civic-issues-backend/internal/config"
	"civic-issues-backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// Notifier sends APNs pushes to the mobile client. A Notifier built from an
// empty config is a no-op, so callers never need to branch on whether push
// is set up.
type Notifier struct {
	client *apns2.Client
	topic  string
}

// NewNotifier creates a notifier from APNs config. Returns a disabled
// notifier when no key file is configured.
func NewNotifier(cfg config.APNsConfig) (*Notifier, error) {
	if cfg.KeyFile == "" {
		return &Notifier{}, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
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

	return &Notifier{client: client, topic: cfg.Topic}, nil
}

// NotifyNewMessage pushes a new-message notice to the recipient's device.
func (n *Notifier) NotifyNewMessage(user *models.User, msg *models.Message) {
	preview := msg.Body
	if len(preview) > 80 {
		preview = preview[:77] + "..."
	}
	n.push(user, "New message", preview)
}

// NotifyIssueResolved pushes a resolution notice to the reporter's device.
func (n *Notifier) NotifyIssueResolved(user *models.User, issue *models.Issue) {
	n.push(user, "Issue resolved", issue.Title)
}

func (n *Notifier) push(user *models.User, title, body string) {
	if n.client == nil || user.PushToken == nil || *user.PushToken == "" {
		return
	}

	notification := &apns2.Notification{
		DeviceToken: *user.PushToken,
		Topic:       n.topic,
		Payload:     payload.NewPayload().AlertTitle(title).AlertBody(body).Sound("default"),
	}

	res, err := n.client.Push(notification)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to send push")
		return
	}
	if !res.Sent() {
		log.Warn().
			Str("user_id", user.ID).
			Int("status", res.StatusCode).
			Str("reason", res.Reason).
			Msg("Push rejected")
	}
}
