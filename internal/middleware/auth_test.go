package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"civic-issues-backend/internal/models"
	"civic-issues-backend/internal/repository"
	"civic-issues-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	users map[string]*models.User
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeUserStore) FindByRole(_ context.Context, role models.Role) (*models.User, error) {
	for _, u := range s.users {
		if u.Role == role {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeUserStore) UpdatePushToken(_ context.Context, userID string, pushToken *string) error {
	return nil
}

func setup(t *testing.T) (*services.UserService, *fakeUserStore, string) {
	t.Helper()
	store := &fakeUserStore{users: make(map[string]*models.User)}
	svc := services.NewUserService(store, "test-secret", 1)

	store.users["u1"] = &models.User{ID: "u1", Username: "jana", Role: models.RoleCitizen}

	token, err := svc.GenerateJWT("u1", models.RoleCitizen)
	require.NoError(t, err)
	return svc, store, token
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		require.NotNil(t, user)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	svc, store, token := setup(t)
	handler := AuthMiddleware(svc)(okHandler(t))

	t.Run("MissingHeader", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("BadFormat", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ValidToken", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("UserNoLongerExists", func(t *testing.T) {
		delete(store.users, "u1")
		defer func() {
			store.users["u1"] = &models.User{ID: "u1", Username: "jana", Role: models.RoleCitizen}
		}()

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	svc, _, token := setup(t)

	run := func(allowed ...models.Role) int {
		handler := AuthMiddleware(svc)(RequireRole(allowed...)(okHandler(t)))
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("RoleAllowed", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, run(models.RoleCitizen))
	})

	t.Run("RoleInWiderSet", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, run(models.RoleWorker, models.RoleCitizen))
	})

	t.Run("RoleForbidden", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, run(models.RoleWorker))
		assert.Equal(t, http.StatusForbidden, run(models.RoleContactPerson))
	})

	t.Run("NoAuthenticatedUser", func(t *testing.T) {
		handler := RequireRole(models.RoleCitizen)(okHandler(t))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
