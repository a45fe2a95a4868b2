package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coderr/marketplace-api/internal/config"
	"github.com/coderr/marketplace-api/internal/domain"
	"go.uber.org/zap"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*UserContext, error)
}

// Middleware handles authentication for HTTP requests
type Middleware struct {
	validator TokenValidator
	apiKey    string
	logger    *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(cfg *config.Config, validator TokenValidator, logger *zap.Logger) *Middleware {
	return &Middleware{
		validator: validator,
		apiKey:    cfg.ApiKey.Value,
		logger:    logger,
	}
}

// Authenticate rejects requests without a valid API key or bearer token
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if apiKey := r.Header.Get("x-api-key"); apiKey != "" {
			if !m.validateAPIKey(apiKey) {
				m.logger.Warn("invalid API key attempt",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeAuthError(w, http.StatusUnauthorized, "Invalid API key.")
				return
			}

			userCtx := SystemUser()
			m.logger.Info("request authenticated",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("auth_type", "api_key"),
				zap.Duration("auth_duration", time.Since(start)),
			)
			next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		userCtx, err := m.validator.ValidateToken(token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			writeAuthError(w, http.StatusUnauthorized, "Invalid token.")
			return
		}

		m.logger.Debug("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("auth_type", "jwt"),
			zap.Uint("user_id", userCtx.UserID),
			zap.String("username", userCtx.Username),
			zap.Duration("auth_duration", time.Since(start)),
		)

		next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
	})
}

// OptionalAuthenticate attaches a principal when credentials are valid and
// otherwise lets the request through anonymously
func (m *Middleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey := r.Header.Get("x-api-key"); apiKey != "" && m.validateAPIKey(apiKey) {
			next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), SystemUser())))
			return
		}

		if token, ok := bearerToken(r); ok {
			userCtx, err := m.validator.ValidateToken(token)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
				return
			}
			m.logger.Debug("optional auth: token validation failed, continuing unauthenticated",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}

		next.ServeHTTP(w, r)
	})
}

// RequireStaff ensures the principal is a staff user or the API key principal
func (m *Middleware) RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := FromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		if !userCtx.IsStaff {
			writeAuthError(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func writeAuthError(w http.ResponseWriter, status int, detail string) {
	errorType := domain.ErrorTypeUnauthorized
	if status == http.StatusForbidden {
		errorType = domain.ErrorTypeForbidden
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   errorType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
