package handlers

import (
	"encoding/json"
	"net/http"

	"civic-issues-backend/internal/middleware"
	"civic-issues-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// MessageHandler handles message-related HTTP requests
type MessageHandler struct {
	messageService *services.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// SendRequest is the citizen-to-contact message payload.
type SendRequest struct {
	Message string `json:"message"`
}

// Send handles POST /messages/send
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.messageService.Send(r.Context(), user.ID, req.Message)
	if err != nil {
		log.Error().Err(err).Str("from_id", user.ID).Msg("Failed to send message")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

// ReplyRequest is the contact-to-citizen message payload.
type ReplyRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// Reply handles POST /messages/reply
func (h *MessageHandler) Reply(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.To == "" {
		respondError(w, "to is required", http.StatusBadRequest)
		return
	}

	msg, err := h.messageService.Reply(r.Context(), user.ID, req.To, req.Message)
	if err != nil {
		log.Error().Err(err).Str("from_id", user.ID).Str("to_id", req.To).Msg("Failed to send reply")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

// List handles GET /messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	messages, err := h.messageService.ListForCitizen(r.Context(), user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to list messages")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// ListContacts handles GET /messages/contacts
func (h *MessageHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	contacts, err := h.messageService.ListContacts(r.Context(), user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to list contacts")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, contacts)
}

// Conversation handles GET /messages/conversation/{citizenId}
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	citizenID := chi.URLParam(r, "citizenId")

	messages, err := h.messageService.Conversation(r.Context(), user.ID, citizenID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}
