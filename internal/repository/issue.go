package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civic-issues-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const issueColumns = `
	i.id, i.title, i.description, i.media_id, i.longitude, i.latitude,
	i.status, i.upvotes, i.downvotes, i.reported_by, u.username,
	i.resolved_at, i.created_at, i.updated_at
`

// IssueRepository handles database operations for issues
type IssueRepository struct {
	db *pgxpool.Pool
}

// NewIssueRepository creates a new issue repository
func NewIssueRepository(db *pgxpool.Pool) *IssueRepository {
	return &IssueRepository{db: db}
}

// Create inserts a new issue. When media is non-nil the media row and the
// issue row are committed in a single transaction so the issue can never
// reference a missing record.
func (r *IssueRepository) Create(ctx context.Context, issue *models.Issue, media *models.Media) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if media != nil {
		mediaQuery := `
			INSERT INTO media (id, s3_key, url, content_type, size_bytes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		_, err = tx.Exec(ctx, mediaQuery,
			media.ID, media.S3Key, media.URL, media.ContentType, media.SizeBytes, media.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create media record: %w", err)
		}
		issue.MediaID = &media.ID
		issue.Media = media
	}

	issueQuery := `
		INSERT INTO issues (id, title, description, media_id, longitude, latitude,
			status, upvotes, downvotes, reported_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.Exec(ctx, issueQuery,
		issue.ID, issue.Title, issue.Description, issue.MediaID,
		issue.Location.Longitude, issue.Location.Latitude,
		issue.Status, issue.Upvotes, issue.Downvotes, issue.ReportedBy,
		issue.CreatedAt, issue.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create issue: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit issue: %w", err)
	}
	return nil
}

// GetByID retrieves an issue with its reporter username, media reference
// and voter membership sets.
func (r *IssueRepository) GetByID(ctx context.Context, id string) (*models.Issue, error) {
	query := `
		SELECT ` + issueColumns + `
		FROM issues i
		JOIN users u ON u.id = i.reported_by
		WHERE i.id = $1
	`
	issue, err := r.scanIssue(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := r.loadVoters(ctx, issue); err != nil {
		return nil, err
	}
	if issue.MediaID != nil {
		media, err := r.getMedia(ctx, *issue.MediaID)
		if err != nil {
			return nil, err
		}
		issue.Media = media
	}
	return issue, nil
}

// List retrieves all issues, newest first.
func (r *IssueRepository) List(ctx context.Context) ([]*models.Issue, error) {
	return r.list(ctx, "")
}

// ListByStatus retrieves issues in the given lifecycle state.
func (r *IssueRepository) ListByStatus(ctx context.Context, status models.IssueStatus) ([]*models.Issue, error) {
	return r.list(ctx, status)
}

func (r *IssueRepository) list(ctx context.Context, status models.IssueStatus) ([]*models.Issue, error) {
	query := `
		SELECT ` + issueColumns + `
		FROM issues i
		JOIN users u ON u.id = i.reported_by
	`
	args := []any{}
	if status != "" {
		query += ` WHERE i.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY i.created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	issues := []*models.Issue{}
	for rows.Next() {
		issue, err := r.scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issues: %w", err)
	}

	for _, issue := range issues {
		if err := r.loadVoters(ctx, issue); err != nil {
			return nil, err
		}
	}
	return issues, nil
}

// Update patches the mutable descriptive fields of an issue. Status is not
// reachable from here; lifecycle transitions go through UpdateStatus.
func (r *IssueRepository) Update(ctx context.Context, id string, title, description *string, location *models.Location) (*models.Issue, error) {
	query := `
		UPDATE issues SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			longitude = COALESCE($4, longitude),
			latitude = COALESCE($5, latitude),
			updated_at = now()
		WHERE id = $1
	`
	var lon, lat *float64
	if location != nil {
		lon, lat = &location.Longitude, &location.Latitude
	}
	result, err := r.db.Exec(ctx, query, id, title, description, lon, lat)
	if err != nil {
		return nil, fmt.Errorf("failed to update issue: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// UpdateStatus moves an issue to a new lifecycle state. The update is
// guarded by the expected current status so a concurrent transition cannot
// slip through; resolvedAt is stamped when the target state is resolved and
// cleared otherwise.
func (r *IssueRepository) UpdateStatus(ctx context.Context, id string, from, to models.IssueStatus, resolvedAt *time.Time) (*models.Issue, error) {
	query := `
		UPDATE issues SET status = $3, resolved_at = $4, updated_at = now()
		WHERE id = $1 AND status = $2
	`
	result, err := r.db.Exec(ctx, query, id, from, to, resolvedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update issue status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// ApplyVote records a user's vote on an issue atomically. The issue row is
// locked for the duration, the membership row and both counters move in the
// same transaction, so the counters always match the membership sets and a
// user can never appear on both sides.
func (r *IssueRepository) ApplyVote(ctx context.Context, issueID, userID string, direction models.VoteDirection) (*models.Issue, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM issues WHERE id = $1 FOR UPDATE`, issueID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock issue: %w", err)
	}

	var prior models.VoteDirection
	err = tx.QueryRow(ctx,
		`SELECT direction FROM issue_votes WHERE issue_id = $1 AND user_id = $2`,
		issueID, userID,
	).Scan(&prior)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read prior vote: %w", err)
	}

	outcome, err := models.ResolveVote(prior, direction)
	if err != nil {
		return nil, err
	}

	switch outcome {
	case models.VoteNew:
		_, err = tx.Exec(ctx,
			`INSERT INTO issue_votes (issue_id, user_id, direction, created_at) VALUES ($1, $2, $3, now())`,
			issueID, userID, direction,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert vote: %w", err)
		}
		_, err = tx.Exec(ctx,
			`UPDATE issues SET `+counterColumn(direction)+` = `+counterColumn(direction)+` + 1, updated_at = now() WHERE id = $1`,
			issueID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to increment counter: %w", err)
		}
	case models.VoteFlip:
		_, err = tx.Exec(ctx,
			`UPDATE issue_votes SET direction = $3 WHERE issue_id = $1 AND user_id = $2`,
			issueID, userID, direction,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to flip vote: %w", err)
		}
		_, err = tx.Exec(ctx,
			`UPDATE issues SET
				`+counterColumn(direction)+` = `+counterColumn(direction)+` + 1,
				`+counterColumn(direction.Opposite())+` = `+counterColumn(direction.Opposite())+` - 1,
				updated_at = now()
			WHERE id = $1`,
			issueID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to move counters: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit vote: %w", err)
	}
	return r.GetByID(ctx, issueID)
}

// counterColumn maps a vote direction to its counter column. Directions
// are a closed enum, never caller input.
func counterColumn(d models.VoteDirection) string {
	if d == models.VoteUp {
		return "upvotes"
	}
	return "downvotes"
}

func (r *IssueRepository) scanIssue(row pgx.Row) (*models.Issue, error) {
	var issue models.Issue
	err := row.Scan(
		&issue.ID, &issue.Title, &issue.Description, &issue.MediaID,
		&issue.Location.Longitude, &issue.Location.Latitude,
		&issue.Status, &issue.Upvotes, &issue.Downvotes,
		&issue.ReportedBy, &issue.ReporterUsername,
		&issue.ResolvedAt, &issue.CreatedAt, &issue.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan issue: %w", err)
	}
	return &issue, nil
}

func (r *IssueRepository) loadVoters(ctx context.Context, issue *models.Issue) error {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, direction FROM issue_votes WHERE issue_id = $1`, issue.ID)
	if err != nil {
		return fmt.Errorf("failed to load voters: %w", err)
	}
	defer rows.Close()

	issue.UpvotedBy = []string{}
	issue.DownvotedBy = []string{}
	for rows.Next() {
		var userID string
		var direction models.VoteDirection
		if err := rows.Scan(&userID, &direction); err != nil {
			return fmt.Errorf("failed to scan voter: %w", err)
		}
		if direction == models.VoteUp {
			issue.UpvotedBy = append(issue.UpvotedBy, userID)
		} else {
			issue.DownvotedBy = append(issue.DownvotedBy, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating voters: %w", err)
	}
	return nil
}

func (r *IssueRepository) getMedia(ctx context.Context, id string) (*models.Media, error) {
	var media models.Media
	err := r.db.QueryRow(ctx,
		`SELECT id, s3_key, url, content_type, size_bytes, created_at FROM media WHERE id = $1`,
		id,
	).Scan(&media.ID, &media.S3Key, &media.URL, &media.ContentType, &media.SizeBytes, &media.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get media: %w", err)
	}
	return &media, nil
}
