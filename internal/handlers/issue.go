package handlers

import (
	"encoding/json"
	"net/http"

	"civic-issues-backend/internal/middleware"
	"civic-issues-backend/internal/models"
	"civic-issues-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// IssueHandler handles issue-related HTTP requests
type IssueHandler struct {
	issueService *services.IssueService
}

// NewIssueHandler creates a new issue handler
func NewIssueHandler(issueService *services.IssueService) *IssueHandler {
	return &IssueHandler{
		issueService: issueService,
	}
}

// Create handles POST /issues
func (h *IssueHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req services.CreateIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	issue, err := h.issueService.Create(r.Context(), user.ID, req)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create issue")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("issue_id", issue.ID).
		Str("reported_by", user.ID).
		Msg("Issue created")

	respondJSON(w, http.StatusCreated, issue)
}

// List handles GET /issues
func (h *IssueHandler) List(w http.ResponseWriter, r *http.Request) {
	issues, err := h.issueService.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list issues")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, issues)
}

// ListReported handles GET /issues/reported
func (h *IssueHandler) ListReported(w http.ResponseWriter, r *http.Request) {
	issues, err := h.issueService.ListReported(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list reported issues")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, issues)
}

// Get handles GET /issues/{id}
func (h *IssueHandler) Get(w http.ResponseWriter, r *http.Request) {
	issueID := chi.URLParam(r, "id")

	issue, err := h.issueService.Get(r.Context(), issueID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, issue)
}

// Update handles PATCH /issues/{id}
func (h *IssueHandler) Update(w http.ResponseWriter, r *http.Request) {
	issueID := chi.URLParam(r, "id")

	var req services.UpdateIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	issue, err := h.issueService.Update(r.Context(), issueID, req)
	if err != nil {
		log.Error().Err(err).Str("issue_id", issueID).Msg("Failed to update issue")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, issue)
}

// TransitionRequest is the explicit status change payload.
type TransitionRequest struct {
	Status models.IssueStatus `json:"status"`
}

// Transition handles PATCH /issues/{id}/status
func (h *IssueHandler) Transition(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	issueID := chi.URLParam(r, "id")

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	issue, err := h.issueService.Transition(r.Context(), issueID, req.Status)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("issue_id", issueID).
		Str("status", string(issue.Status)).
		Str("worker_id", user.ID).
		Msg("Issue status changed")

	respondJSON(w, http.StatusOK, issue)
}

// Upvote handles PATCH /issues/{id}/upvote
func (h *IssueHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, models.VoteUp)
}

// Downvote handles PATCH /issues/{id}/downvote
func (h *IssueHandler) Downvote(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, models.VoteDown)
}

func (h *IssueHandler) vote(w http.ResponseWriter, r *http.Request, direction models.VoteDirection) {
	user := middleware.GetUser(r.Context())
	issueID := chi.URLParam(r, "id")

	issue, err := h.issueService.Vote(r.Context(), issueID, user.ID, direction)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("issue_id", issueID).
		Str("user_id", user.ID).
		Str("direction", string(direction)).
		Msg("Vote applied")

	respondJSON(w, http.StatusOK, issue)
}

// Resolve handles PATCH /issues/{id}/resolve
func (h *IssueHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	issueID := chi.URLParam(r, "id")

	issue, err := h.issueService.Resolve(r.Context(), issueID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("issue_id", issueID).
		Str("worker_id", user.ID).
		Msg("Issue resolved")

	respondJSON(w, http.StatusOK, issue)
}
