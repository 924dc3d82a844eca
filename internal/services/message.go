package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"civic-issues-backend/internal/models"
	"civic-issues-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MessageStore is the persistence surface the message service needs.
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	ListForUser(ctx context.Context, userID string) ([]*models.Message, error)
	Conversation(ctx context.Context, userA, userB string) ([]*models.Message, error)
	ListSenders(ctx context.Context, toID string) ([]*models.UserSummary, error)
}

// MessageDeliverer pushes a freshly stored message to a connected client.
type MessageDeliverer interface {
	DeliverMessage(userID string, msg *models.Message)
}

// MessagePusher sends a mobile push for a new message.
type MessagePusher interface {
	NotifyNewMessage(user *models.User, msg *models.Message)
}

// MessageService routes direct messages between citizens and the contact
// person.
type MessageService struct {
	messages MessageStore
	users    UserStore
	hub      MessageDeliverer
	notifier MessagePusher
}

// NewMessageService creates a new message service. hub and notifier may be
// nil.
func NewMessageService(messages MessageStore, users UserStore, hub MessageDeliverer, notifier MessagePusher) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		hub:      hub,
		notifier: notifier,
	}
}

// Send stores a message from a citizen to the contact person.
func (s *MessageService) Send(ctx context.Context, fromID, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: message body is required", ErrValidation)
	}

	contact, err := s.users.FindByRole(ctx, models.RoleContactPerson)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoContactAvailable
		}
		return nil, err
	}

	return s.store(ctx, fromID, contact, body)
}

// Reply stores a message from the contact person to a citizen. The target
// must exist and hold the citizen role.
func (s *MessageService) Reply(ctx context.Context, fromID, toCitizenID, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: message body is required", ErrValidation)
	}

	citizen, err := s.lookupCitizen(ctx, toCitizenID)
	if err != nil {
		return nil, err
	}

	return s.store(ctx, fromID, citizen, body)
}

// ListForCitizen returns the citizen's whole conversation, both directions.
func (s *MessageService) ListForCitizen(ctx context.Context, citizenID string) ([]*models.Message, error) {
	return s.messages.ListForUser(ctx, citizenID)
}

// ListContacts returns the citizens who have messaged the contact person.
func (s *MessageService) ListContacts(ctx context.Context, contactID string) ([]*models.UserSummary, error) {
	return s.messages.ListSenders(ctx, contactID)
}

// Conversation returns the thread between the contact person and one
// citizen.
func (s *MessageService) Conversation(ctx context.Context, contactID, citizenID string) ([]*models.Message, error) {
	if _, err := s.lookupCitizen(ctx, citizenID); err != nil {
		return nil, err
	}
	return s.messages.Conversation(ctx, contactID, citizenID)
}

func (s *MessageService) lookupCitizen(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}
	if user.Role != models.RoleCitizen {
		return nil, ErrRecipientNotFound
	}
	return user, nil
}

func (s *MessageService) store(ctx context.Context, fromID string, to *models.User, body string) (*models.Message, error) {
	msg := &models.Message{
		ID:         uuid.New().String(),
		FromID:     fromID,
		ToID:       to.ID,
		ToUsername: to.Username,
		Body:       body,
		CreatedAt:  time.Now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	// Delivery is best effort; the message is already persisted.
	if s.hub != nil {
		s.hub.DeliverMessage(to.ID, msg)
	}
	if s.notifier != nil {
		s.notifier.NotifyNewMessage(to, msg)
	}

	log.Info().
		Str("message_id", msg.ID).
		Str("from_id", fromID).
		Str("to_id", to.ID).
		Msg("Message stored")

	return msg, nil
}
