package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"civic-issues-backend/internal/models"
	"civic-issues-backend/internal/repository"
	"civic-issues-backend/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// respondServiceError maps domain errors onto HTTP statuses. Every failure
// surfaces as a structured payload, nothing is swallowed.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, services.ErrNoContactAvailable),
		errors.Is(err, services.ErrRecipientNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, repository.ErrDuplicateKey),
		errors.Is(err, models.ErrDuplicateVote),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrValidation):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, err.Error(), http.StatusUnauthorized)
	default:
		respondError(w, "Internal server error", http.StatusInternalServerError)
	}
}
