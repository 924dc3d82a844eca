package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"civic-issues-backend/internal/models"
	"civic-issues-backend/internal/repository"
	"civic-issues-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondServiceError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"NotFound", repository.ErrNotFound, http.StatusNotFound},
		{"NoContact", services.ErrNoContactAvailable, http.StatusNotFound},
		{"RecipientNotFound", services.ErrRecipientNotFound, http.StatusNotFound},
		{"DuplicateKey", repository.ErrDuplicateKey, http.StatusBadRequest},
		{"DuplicateVote", models.ErrDuplicateVote, http.StatusBadRequest},
		{"InvalidTransition", services.ErrInvalidTransition, http.StatusBadRequest},
		{"Validation", fmt.Errorf("%w: title is required", services.ErrValidation), http.StatusBadRequest},
		{"InvalidCredentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"StoreFailure", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondServiceError(rec, tc.err)
			assert.Equal(t, tc.want, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}

	// Internal details never leak to the client.
	t.Run("OpaqueInternalError", func(t *testing.T) {
		rec := httptest.NewRecorder()
		respondServiceError(rec, errors.New("pq: something sensitive"))

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "Internal server error", body.Error)
	})
}
