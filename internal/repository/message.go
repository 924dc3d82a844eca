package repository

import (
	"context"
	"fmt"

	"civic-issues-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const messageColumns = `
	m.id, m.from_id, m.to_id, f.username, t.username, m.body, m.read, m.created_at
`

// MessageRepository handles database operations for messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message. Messages are never updated afterwards.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, from_id, to_id, body, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.FromID, msg.ToID, msg.Body, msg.Read, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListForUser retrieves every message the user sent or received, oldest
// first.
func (r *MessageRepository) ListForUser(ctx context.Context, userID string) ([]*models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		JOIN users f ON f.id = m.from_id
		JOIN users t ON t.id = m.to_id
		WHERE m.from_id = $1 OR m.to_id = $1
		ORDER BY m.created_at
	`
	return r.queryMessages(ctx, query, userID)
}

// Conversation retrieves the messages exchanged between two users, oldest
// first.
func (r *MessageRepository) Conversation(ctx context.Context, userA, userB string) ([]*models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		JOIN users f ON f.id = m.from_id
		JOIN users t ON t.id = m.to_id
		WHERE (m.from_id = $1 AND m.to_id = $2) OR (m.from_id = $2 AND m.to_id = $1)
		ORDER BY m.created_at
	`
	return r.queryMessages(ctx, query, userA, userB)
}

// ListSenders retrieves the distinct users who have sent messages to the
// given recipient.
func (r *MessageRepository) ListSenders(ctx context.Context, toID string) ([]*models.UserSummary, error) {
	query := `
		SELECT DISTINCT u.id, u.username
		FROM messages m
		JOIN users u ON u.id = m.from_id
		WHERE m.to_id = $1
		ORDER BY u.username
	`
	rows, err := r.db.Query(ctx, query, toID)
	if err != nil {
		return nil, fmt.Errorf("failed to list senders: %w", err)
	}
	defer rows.Close()

	senders := []*models.UserSummary{}
	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(&s.ID, &s.Username); err != nil {
			return nil, fmt.Errorf("failed to scan sender: %w", err)
		}
		senders = append(senders, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating senders: %w", err)
	}
	return senders, nil
}

func (r *MessageRepository) queryMessages(ctx context.Context, query string, args ...any) ([]*models.Message, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var msg models.Message
	err := row.Scan(
		&msg.ID, &msg.FromID, &msg.ToID, &msg.FromUsername, &msg.ToUsername,
		&msg.Body, &msg.Read, &msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}
	return &msg, nil
}
