package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coderr/marketplace-api/internal/auth"
	"github.com/coderr/marketplace-api/internal/config"
	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAPIKey = "test-api-key-12345"

func createTestMiddleware(t *testing.T) (*auth.Middleware, *auth.TokenManager) {
	t.Helper()
	cfg := &config.Config{
		Auth:   *testAuthConfig(),
		ApiKey: config.ApiKeyConfig{Value: testAPIKey},
	}
	tokens := auth.NewTokenManager(&cfg.Auth)
	return auth.NewMiddleware(cfg, tokens, zap.NewNop()), tokens
}

func captureHandler(called *bool, captured **auth.UserContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		*captured, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_Authenticate(t *testing.T) {
	middleware, tokens := createTestMiddleware(t)

	t.Run("api key maps to the staff system principal", func(t *testing.T) {
		var called bool
		var userCtx *auth.UserContext
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set("x-api-key", testAPIKey)
		w := httptest.NewRecorder()

		middleware.Authenticate(captureHandler(&called, &userCtx)).ServeHTTP(w, req)

		assert.True(t, called)
		require.NotNil(t, userCtx)
		assert.True(t, userCtx.IsStaff)
		assert.True(t, userCtx.IsSystem)
		assert.Equal(t, auth.SystemUsername, userCtx.Username)
	})

	t.Run("invalid api key is rejected", func(t *testing.T) {
		var called bool
		var userCtx *auth.UserContext
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set("x-api-key", "wrong")
		w := httptest.NewRecorder()

		middleware.Authenticate(captureHandler(&called, &userCtx)).ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid bearer token", func(t *testing.T) {
		token, err := tokens.Issue(&auth.UserContext{UserID: 9, Username: "nina"})
		require.NoError(t, err)

		var called bool
		var userCtx *auth.UserContext
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		middleware.Authenticate(captureHandler(&called, &userCtx)).ServeHTTP(w, req)

		assert.True(t, called)
		require.NotNil(t, userCtx)
		assert.Equal(t, uint(9), userCtx.UserID)
		assert.False(t, userCtx.IsStaff)
	})

	t.Run("missing credentials", func(t *testing.T) {
		var called bool
		var userCtx *auth.UserContext
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		w := httptest.NewRecorder()

		middleware.Authenticate(captureHandler(&called, &userCtx)).ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var body domain.APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, domain.ErrorTypeUnauthorized, body.Type)
	})

	t.Run("malformed authorization header", func(t *testing.T) {
		var called bool
		var userCtx *auth.UserContext
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()

		middleware.Authenticate(captureHandler(&called, &userCtx)).ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestMiddleware_OptionalAuthenticate(t *testing.T) {
	middleware, _ := createTestMiddleware(t)

	var called bool
	var userCtx *auth.UserContext
	req := httptest.NewRequest(http.MethodGet, "/api/v1/offers", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()

	middleware.OptionalAuthenticate(captureHandler(&called, &userCtx)).ServeHTTP(w, req)

	assert.True(t, called)
	assert.Nil(t, userCtx)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_RequireStaff(t *testing.T) {
	middleware, _ := createTestMiddleware(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		user   *auth.UserContext
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"regular user", &auth.UserContext{UserID: 1}, http.StatusForbidden},
		{"staff user", &auth.UserContext{UserID: 2, IsStaff: true}, http.StatusNoContent},
		{"system principal", auth.SystemUser(), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/orders/1", nil)
			if tt.user != nil {
				req = req.WithContext(auth.WithUserContext(req.Context(), tt.user))
			}
			w := httptest.NewRecorder()

			middleware.RequireStaff(next).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}
