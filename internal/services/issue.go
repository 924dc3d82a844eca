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

// IssueStore is the persistence surface the issue service needs. ApplyVote
// must be atomic: the membership change and both counters commit together
// or not at all.
type IssueStore interface {
	Create(ctx context.Context, issue *models.Issue, media *models.Media) error
	GetByID(ctx context.Context, id string) (*models.Issue, error)
	List(ctx context.Context) ([]*models.Issue, error)
	ListByStatus(ctx context.Context, status models.IssueStatus) ([]*models.Issue, error)
	Update(ctx context.Context, id string, title, description *string, location *models.Location) (*models.Issue, error)
	UpdateStatus(ctx context.Context, id string, from, to models.IssueStatus, resolvedAt *time.Time) (*models.Issue, error)
	ApplyVote(ctx context.Context, issueID, userID string, direction models.VoteDirection) (*models.Issue, error)
}

// MediaUploader stores an image blob and returns its reference record.
type MediaUploader interface {
	Upload(ctx context.Context, base64Payload, contentType string) (*models.Media, error)
}

// IssuePusher delivers resolution notices to the reporter's device.
type IssuePusher interface {
	NotifyIssueResolved(user *models.User, issue *models.Issue)
}

// IssueService handles issue CRUD, voting and lifecycle transitions.
type IssueService struct {
	issues   IssueStore
	users    UserStore
	media    MediaUploader
	notifier IssuePusher
}

// NewIssueService creates a new issue service. media and notifier may be
// nil when the corresponding backends are not configured.
func NewIssueService(issues IssueStore, users UserStore, media MediaUploader, notifier IssuePusher) *IssueService {
	return &IssueService{
		issues:   issues,
		users:    users,
		media:    media,
		notifier: notifier,
	}
}

// CreateIssueRequest is the issue creation payload. Image is an optional
// base64-encoded photo.
type CreateIssueRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Image       string           `json:"image,omitempty"`
	ContentType string           `json:"content_type,omitempty"`
	Location    *models.Location `json:"location"`
}

// Create reports a new issue for the given citizen. When an image is
// attached it is uploaded first; the media record and the issue commit in
// one transaction so the issue can never point at a missing record. A blob
// already in S3 when that transaction fails is logged and left for cleanup.
func (s *IssueService) Create(ctx context.Context, reporterID string, req CreateIssueRequest) (*models.Issue, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if req.Location == nil {
		return nil, fmt.Errorf("%w: location is required", ErrValidation)
	}
	if req.Location.Longitude < -180 || req.Location.Longitude > 180 ||
		req.Location.Latitude < -90 || req.Location.Latitude > 90 {
		return nil, fmt.Errorf("%w: location out of range", ErrValidation)
	}

	var media *models.Media
	if req.Image != "" {
		if s.media == nil {
			return nil, fmt.Errorf("%w: media storage is not configured", ErrValidation)
		}
		var err error
		media, err = s.media.Upload(ctx, req.Image, req.ContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
	}

	now := time.Now()
	issue := &models.Issue{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Location:    *req.Location,
		Status:      models.StatusReported,
		UpvotedBy:   []string{},
		DownvotedBy: []string{},
		ReportedBy:  reporterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.issues.Create(ctx, issue, media); err != nil {
		if media != nil {
			log.Warn().
				Str("s3_key", media.S3Key).
				Msg("Issue insert failed after media upload, blob orphaned")
		}
		return nil, err
	}
	return issue, nil
}

// List returns every issue.
func (s *IssueService) List(ctx context.Context) ([]*models.Issue, error) {
	return s.issues.List(ctx)
}

// ListReported returns issues still in the reported state.
func (s *IssueService) ListReported(ctx context.Context) ([]*models.Issue, error) {
	return s.issues.ListByStatus(ctx, models.StatusReported)
}

// Get loads one issue.
func (s *IssueService) Get(ctx context.Context, id string) (*models.Issue, error) {
	return s.issues.GetByID(ctx, id)
}

// UpdateIssueRequest is the worker patch payload. Status is deliberately
// absent: lifecycle changes only go through Transition and Resolve.
type UpdateIssueRequest struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Location    *models.Location `json:"location,omitempty"`
}

// Update patches the descriptive fields of an issue.
func (s *IssueService) Update(ctx context.Context, id string, req UpdateIssueRequest) (*models.Issue, error) {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		return nil, fmt.Errorf("%w: description cannot be empty", ErrValidation)
	}
	return s.issues.Update(ctx, id, req.Title, req.Description, req.Location)
}

// Vote applies a citizen's vote on an issue. The rules live in
// models.ResolveVote; the store executes the outcome atomically.
func (s *IssueService) Vote(ctx context.Context, issueID, userID string, direction models.VoteDirection) (*models.Issue, error) {
	if !direction.Valid() {
		return nil, fmt.Errorf("%w: unknown vote direction %q", ErrValidation, direction)
	}
	return s.issues.ApplyVote(ctx, issueID, userID, direction)
}

// Transition moves an issue to a new lifecycle state, enforcing the
// transition table. It is the only writer of the status field.
func (s *IssueService) Transition(ctx context.Context, id string, to models.IssueStatus) (*models.Issue, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}

	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(issue.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, issue.Status, to)
	}

	var resolvedAt *time.Time
	if to == models.StatusResolved {
		now := time.Now()
		resolvedAt = &now
	}

	updated, err := s.issues.UpdateStatus(ctx, id, issue.Status, to, resolvedAt)
	if err != nil {
		// The guarded update misses when the status moved underneath us.
		if errors.Is(err, repository.ErrNotFound) {
			if _, getErr := s.issues.GetByID(ctx, id); getErr == nil {
				return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
			}
		}
		return nil, err
	}

	if to == models.StatusResolved {
		s.notifyResolved(ctx, updated)
	}
	return updated, nil
}

// Resolve marks an issue resolved and stamps the resolution time.
func (s *IssueService) Resolve(ctx context.Context, id string) (*models.Issue, error) {
	return s.Transition(ctx, id, models.StatusResolved)
}

func (s *IssueService) notifyResolved(ctx context.Context, issue *models.Issue) {
	if s.notifier == nil {
		return
	}
	reporter, err := s.users.GetByID(ctx, issue.ReportedBy)
	if err != nil {
		log.Error().Err(err).Str("issue_id", issue.ID).Msg("Failed to load reporter for push")
		return
	}
	s.notifier.NotifyIssueResolved(reporter, issue)
}
