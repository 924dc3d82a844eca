package services

import (
	"context"
	"time"

	"civic-issues-backend/internal/models"
	"civic-issues-backend/internal/repository"
)

// In-memory stores mirroring the repository semantics, shared by the
// service tests. ApplyVote goes through models.ResolveVote exactly like
// the SQL implementation does.

type memUserStore struct {
	order []string
	byID  map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byID: make(map[string]*models.User)}
}

func (s *memUserStore) Create(_ context.Context, user *models.User) error {
	for _, u := range s.byID {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicateKey
		}
	}
	u := *user
	s.byID[user.ID] = &u
	s.order = append(s.order, user.ID)
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := *user
	return &u, nil
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, id := range s.order {
		if s.byID[id].Username == username {
			u := *s.byID[id]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memUserStore) FindByRole(_ context.Context, role models.Role) (*models.User, error) {
	for _, id := range s.order {
		if s.byID[id].Role == role {
			u := *s.byID[id]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memUserStore) UpdatePushToken(_ context.Context, userID string, pushToken *string) error {
	user, ok := s.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.PushToken = pushToken
	return nil
}

type memIssueStore struct {
	issues map[string]*models.Issue
	votes  map[string]map[string]models.VoteDirection
}

func newMemIssueStore() *memIssueStore {
	return &memIssueStore{
		issues: make(map[string]*models.Issue),
		votes:  make(map[string]map[string]models.VoteDirection),
	}
}

func (s *memIssueStore) Create(_ context.Context, issue *models.Issue, media *models.Media) error {
	if media != nil {
		issue.MediaID = &media.ID
		issue.Media = media
	}
	i := *issue
	s.issues[issue.ID] = &i
	s.votes[issue.ID] = make(map[string]models.VoteDirection)
	return nil
}

func (s *memIssueStore) GetByID(_ context.Context, id string) (*models.Issue, error) {
	issue, ok := s.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.project(issue), nil
}

func (s *memIssueStore) List(_ context.Context) ([]*models.Issue, error) {
	issues := []*models.Issue{}
	for _, issue := range s.issues {
		issues = append(issues, s.project(issue))
	}
	return issues, nil
}

func (s *memIssueStore) ListByStatus(_ context.Context, status models.IssueStatus) ([]*models.Issue, error) {
	issues := []*models.Issue{}
	for _, issue := range s.issues {
		if issue.Status == status {
			issues = append(issues, s.project(issue))
		}
	}
	return issues, nil
}

func (s *memIssueStore) Update(ctx context.Context, id string, title, description *string, location *models.Location) (*models.Issue, error) {
	issue, ok := s.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if title != nil {
		issue.Title = *title
	}
	if description != nil {
		issue.Description = *description
	}
	if location != nil {
		issue.Location = *location
	}
	issue.UpdatedAt = time.Now()
	return s.GetByID(ctx, id)
}

func (s *memIssueStore) UpdateStatus(ctx context.Context, id string, from, to models.IssueStatus, resolvedAt *time.Time) (*models.Issue, error) {
	issue, ok := s.issues[id]
	if !ok || issue.Status != from {
		return nil, repository.ErrNotFound
	}
	issue.Status = to
	issue.ResolvedAt = resolvedAt
	issue.UpdatedAt = time.Now()
	return s.GetByID(ctx, id)
}

func (s *memIssueStore) ApplyVote(ctx context.Context, issueID, userID string, direction models.VoteDirection) (*models.Issue, error) {
	issue, ok := s.issues[issueID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	outcome, err := models.ResolveVote(s.votes[issueID][userID], direction)
	if err != nil {
		return nil, err
	}

	s.votes[issueID][userID] = direction
	switch outcome {
	case models.VoteNew:
		s.bump(issue, direction, 1)
	case models.VoteFlip:
		s.bump(issue, direction, 1)
		s.bump(issue, direction.Opposite(), -1)
	}
	issue.UpdatedAt = time.Now()
	return s.GetByID(ctx, issueID)
}

func (s *memIssueStore) bump(issue *models.Issue, direction models.VoteDirection, delta int) {
	if direction == models.VoteUp {
		issue.Upvotes += delta
	} else {
		issue.Downvotes += delta
	}
}

func (s *memIssueStore) project(issue *models.Issue) *models.Issue {
	i := *issue
	i.UpvotedBy = []string{}
	i.DownvotedBy = []string{}
	for userID, direction := range s.votes[issue.ID] {
		if direction == models.VoteUp {
			i.UpvotedBy = append(i.UpvotedBy, userID)
		} else {
			i.DownvotedBy = append(i.DownvotedBy, userID)
		}
	}
	return &i
}

type memMessageStore struct {
	messages []*models.Message
}

func (s *memMessageStore) Create(_ context.Context, msg *models.Message) error {
	m := *msg
	s.messages = append(s.messages, &m)
	return nil
}

func (s *memMessageStore) ListForUser(_ context.Context, userID string) ([]*models.Message, error) {
	out := []*models.Message{}
	for _, m := range s.messages {
		if m.FromID == userID || m.ToID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memMessageStore) Conversation(_ context.Context, userA, userB string) ([]*models.Message, error) {
	out := []*models.Message{}
	for _, m := range s.messages {
		if (m.FromID == userA && m.ToID == userB) || (m.FromID == userB && m.ToID == userA) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memMessageStore) ListSenders(_ context.Context, toID string) ([]*models.UserSummary, error) {
	seen := map[string]bool{}
	out := []*models.UserSummary{}
	for _, m := range s.messages {
		if m.ToID == toID && !seen[m.FromID] {
			seen[m.FromID] = true
			out = append(out, &models.UserSummary{ID: m.FromID, Username: m.FromUsername})
		}
	}
	return out, nil
}
