package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coderr/marketplace-api/internal/auth"
	"github.com/coderr/marketplace-api/internal/config"
	"github.com/coderr/marketplace-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remoteAddr, path string, user *auth.UserContext) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	if user != nil {
		req = req.WithContext(auth.WithUserContext(req.Context(), user))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, zap.NewNop())
	h := rl.LimitByIP(okHandler())

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234", "/api/v1/offers", nil))
	}
}

func TestRateLimiter_LimitByIP(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 2,
		WhitelistIPs:      []string{"127.0.0.1"},
		WhitelistPaths:    []string{"/health/*"},
	}, zap.NewNop())
	h := rl.LimitByIP(okHandler())

	t.Run("blocks after the limit", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1234", "/api/v1/offers", nil))
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1234", "/api/v1/offers", nil))
		assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.2:1234", "/api/v1/offers", nil))
	})

	t.Run("other ips are independent", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.3:1234", "/api/v1/offers", nil))
	})

	t.Run("whitelisted ip", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, hit(h, "127.0.0.1:1234", "/api/v1/offers", nil))
		}
	})

	t.Run("whitelisted path prefix", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, hit(h, "10.0.0.4:1234", "/health/db", nil))
		}
	})
}

func TestRateLimiter_LimitPerUser(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:               true,
		RequestsPerMinute:     100,
		RequestsPerMinuteAuth: 1,
	}, zap.NewNop())
	h := rl.Limit(okHandler())

	alice := &auth.UserContext{UserID: 1, Username: "alice"}
	bob := &auth.UserContext{UserID: 2, Username: "bob"}

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.5:1", "/api/v1/orders", alice))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.6:1", "/api/v1/orders", alice))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.5:1", "/api/v1/orders", bob))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), alice))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limited")
}
