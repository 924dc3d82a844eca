package services

import (
	"context"
	"testing"
	"time"

	"civic-issues-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDeliverer struct {
	delivered map[string][]*models.Message
}

func (d *recordingDeliverer) DeliverMessage(userID string, msg *models.Message) {
	if d.delivered == nil {
		d.delivered = make(map[string][]*models.Message)
	}
	d.delivered[userID] = append(d.delivered[userID], msg)
}

func addUser(t *testing.T, users *memUserStore, id, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		ID:        id,
		Username:  username,
		Email:     username + "@example.com",
		Role:      role,
		CreatedAt: time.Now(),
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestSend(t *testing.T) {
	ctx := context.Background()

	t.Run("NoContactProvisioned", func(t *testing.T) {
		users := newMemUserStore()
		addUser(t, users, "c1", "jana", models.RoleCitizen)
		svc := NewMessageService(&memMessageStore{}, users, nil, nil)

		_, err := svc.Send(ctx, "c1", "hello")
		assert.ErrorIs(t, err, ErrNoContactAvailable)
	})

	t.Run("RoutesToContactPerson", func(t *testing.T) {
		users := newMemUserStore()
		addUser(t, users, "c1", "jana", models.RoleCitizen)
		contact := addUser(t, users, "cp1", "office", models.RoleContactPerson)
		hub := &recordingDeliverer{}
		svc := NewMessageService(&memMessageStore{}, users, hub, nil)

		msg, err := svc.Send(ctx, "c1", "hello")
		require.NoError(t, err)
		assert.Equal(t, "c1", msg.FromID)
		assert.Equal(t, contact.ID, msg.ToID)
		assert.Equal(t, "hello", msg.Body)
		assert.False(t, msg.Read)

		// Live delivery went to the contact person.
		require.Len(t, hub.delivered[contact.ID], 1)
		assert.Equal(t, msg.ID, hub.delivered[contact.ID][0].ID)
	})

	t.Run("EmptyBody", func(t *testing.T) {
		users := newMemUserStore()
		addUser(t, users, "cp1", "office", models.RoleContactPerson)
		svc := NewMessageService(&memMessageStore{}, users, nil, nil)

		_, err := svc.Send(ctx, "c1", "   ")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestReply(t *testing.T) {
	ctx := context.Background()
	users := newMemUserStore()
	addUser(t, users, "c1", "jana", models.RoleCitizen)
	addUser(t, users, "w1", "worker", models.RoleWorker)
	addUser(t, users, "cp1", "office", models.RoleContactPerson)
	svc := NewMessageService(&memMessageStore{}, users, nil, nil)

	t.Run("Success", func(t *testing.T) {
		msg, err := svc.Reply(ctx, "cp1", "c1", "we are on it")
		require.NoError(t, err)
		assert.Equal(t, "cp1", msg.FromID)
		assert.Equal(t, "c1", msg.ToID)
	})

	t.Run("MissingRecipient", func(t *testing.T) {
		_, err := svc.Reply(ctx, "cp1", "nobody", "hi")
		assert.ErrorIs(t, err, ErrRecipientNotFound)
	})

	t.Run("RecipientNotACitizen", func(t *testing.T) {
		_, err := svc.Reply(ctx, "cp1", "w1", "hi")
		assert.ErrorIs(t, err, ErrRecipientNotFound)
	})
}

func TestConversations(t *testing.T) {
	ctx := context.Background()
	users := newMemUserStore()
	addUser(t, users, "c1", "jana", models.RoleCitizen)
	addUser(t, users, "c2", "marko", models.RoleCitizen)
	addUser(t, users, "cp1", "office", models.RoleContactPerson)
	svc := NewMessageService(&memMessageStore{}, users, nil, nil)

	_, err := svc.Send(ctx, "c1", "first from jana")
	require.NoError(t, err)
	_, err = svc.Send(ctx, "c2", "first from marko")
	require.NoError(t, err)
	_, err = svc.Reply(ctx, "cp1", "c1", "reply to jana")
	require.NoError(t, err)
	_, err = svc.Send(ctx, "c1", "second from jana")
	require.NoError(t, err)

	t.Run("CitizenSeesOwnThreadOnly", func(t *testing.T) {
		msgs, err := svc.ListForCitizen(ctx, "c1")
		require.NoError(t, err)
		assert.Len(t, msgs, 3)
		for _, m := range msgs {
			assert.True(t, m.FromID == "c1" || m.ToID == "c1")
		}
	})

	t.Run("ContactsAreDistinctSenders", func(t *testing.T) {
		contacts, err := svc.ListContacts(ctx, "cp1")
		require.NoError(t, err)
		require.Len(t, contacts, 2)
		ids := []string{contacts[0].ID, contacts[1].ID}
		assert.ElementsMatch(t, []string{"c1", "c2"}, ids)
	})

	t.Run("ConversationWithOneCitizen", func(t *testing.T) {
		msgs, err := svc.Conversation(ctx, "cp1", "c1")
		require.NoError(t, err)
		assert.Len(t, msgs, 3)
	})

	t.Run("ConversationTargetMustBeCitizen", func(t *testing.T) {
		_, err := svc.Conversation(ctx, "cp1", "cp1")
		assert.ErrorIs(t, err, ErrRecipientNotFound)
	})
}
