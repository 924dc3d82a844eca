package repository

import (
	"context"
	"errors"
	"fmt"

	"civic-issues-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. A username or email collision yields
// ErrDuplicateKey.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, role, push_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role,
		user.PushToken, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID, including the issue sets the user has
// voted on.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, role, push_token, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role,
		&user.PushToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := r.loadVotedIssues(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, role, push_token, created_at, updated_at
		FROM users
		WHERE username = $1
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role,
		&user.PushToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	if err := r.loadVotedIssues(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByRole retrieves the first user holding the given role. Used to
// locate the contact person account.
func (r *UserRepository) FindByRole(ctx context.Context, role models.Role) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, role, push_token, created_at, updated_at
		FROM users
		WHERE role = $1
		ORDER BY created_at
		LIMIT 1
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, role).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role,
		&user.PushToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by role: %w", err)
	}
	return &user, nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	query := `UPDATE users SET push_token = $1, updated_at = now() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// loadVotedIssues fills the user's upvoted/downvoted issue sets from the
// issue_votes relation.
func (r *UserRepository) loadVotedIssues(ctx context.Context, user *models.User) error {
	query := `SELECT issue_id, direction FROM issue_votes WHERE user_id = $1`
	rows, err := r.db.Query(ctx, query, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load voted issues: %w", err)
	}
	defer rows.Close()

	user.UpvotedIssues = []string{}
	user.DownvotedIssues = []string{}
	for rows.Next() {
		var issueID string
		var direction models.VoteDirection
		if err := rows.Scan(&issueID, &direction); err != nil {
			return fmt.Errorf("failed to scan vote: %w", err)
		}
		if direction == models.VoteUp {
			user.UpvotedIssues = append(user.UpvotedIssues, issueID)
		} else {
			user.DownvotedIssues = append(user.DownvotedIssues, issueID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating votes: %w", err)
	}
	return nil
}
