package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/coderr/marketplace-api/internal/auth"
	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/logger"
	"github.com/coderr/marketplace-api/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxAuditBody bounds how much of a request body is kept for the audit log
const maxAuditBody = 64 << 10

// AuditConfig holds configuration for audit middleware
type AuditConfig struct {
	// SkipPaths are path prefixes that are never audited
	SkipPaths []string
	// SkipMethods are never audited
	SkipMethods []string
	// AuditReads enables auditing of GET requests
	AuditReads bool
}

// DefaultAuditConfig skips health, docs and login traffic
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		SkipPaths: []string{
			"/health",
			"/swagger",
			"/api/v1/login",
		},
		SkipMethods: []string{
			http.MethodOptions,
			http.MethodHead,
		},
	}
}

// AuditLogger is the subset of the audit service used by the middleware
type AuditLogger interface {
	Log(ctx context.Context, r *http.Request, entry service.LogEntry) error
}

// AuditMiddleware records successful mutating requests in the audit log
type AuditMiddleware struct {
	auditService AuditLogger
	config       *AuditConfig
	logger       *zap.Logger
}

func NewAuditMiddleware(auditService AuditLogger, config *AuditConfig, logger *zap.Logger) *AuditMiddleware {
	if config == nil {
		config = DefaultAuditConfig()
	}
	return &AuditMiddleware{
		auditService: auditService,
		config:       config,
		logger:       logger,
	}
}

// Audit logs the request after the handler returns with a 2xx status.
// Writing the entry happens off the request goroutine.
func (m *AuditMiddleware) Audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.shouldAudit(r) {
			next.ServeHTTP(w, r)
			return
		}

		var requestBody []byte
		if r.Body != nil && isJSON(r) && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
			requestBody, _ = io.ReadAll(io.LimitReader(r.Body, maxAuditBody))
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(requestBody), r.Body))
		}

		rw := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		if rw.statusCode < 200 || rw.statusCode >= 300 {
			return
		}
		entry, ok := m.buildEntry(r, requestBody)
		if !ok {
			return
		}
		ctx := context.WithoutCancel(r.Context())
		go m.write(ctx, r, entry)
	})
}

func (m *AuditMiddleware) shouldAudit(r *http.Request) bool {
	if m.auditService == nil {
		return false
	}
	if slices.Contains(m.config.SkipMethods, r.Method) {
		return false
	}
	if r.Method == http.MethodGet && !m.config.AuditReads {
		return false
	}
	for _, skipPath := range m.config.SkipPaths {
		if strings.HasPrefix(r.URL.Path, skipPath) {
			return false
		}
	}
	return true
}

func (m *AuditMiddleware) buildEntry(r *http.Request, requestBody []byte) (service.LogEntry, bool) {
	action := methodToAction(r.Method)
	if action == "" {
		return service.LogEntry{}, false
	}
	entityType, entityID := extractEntityInfo(r)

	var values map[string]interface{}
	if len(requestBody) > 0 {
		_ = json.Unmarshal(requestBody, &values)
	}

	return service.LogEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		NewValues:  values,
	}, true
}

func (m *AuditMiddleware) write(ctx context.Context, r *http.Request, entry service.LogEntry) {
	if err := m.auditService.Log(ctx, r, entry); err != nil {
		log := m.logger
		if userCtx, ok := auth.FromContext(ctx); ok {
			log = logger.WithUser(log, userCtx.UserID, userCtx.Username)
		}
		log.Warn("failed to create audit log entry",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Error(err))
	}
}

func methodToAction(method string) domain.AuditAction {
	switch method {
	case http.MethodPost:
		return domain.AuditActionCreate
	case http.MethodPut, http.MethodPatch:
		return domain.AuditActionUpdate
	case http.MethodDelete:
		return domain.AuditActionDelete
	default:
		return ""
	}
}

// extractEntityInfo derives the entity from the matched route pattern and
// its {id} parameter
func extractEntityInfo(r *http.Request) (string, *uint) {
	routeCtx := chi.RouteContext(r.Context())
	if routeCtx == nil {
		return parseEntityFromPath(r.URL.Path), nil
	}

	var entityID *uint
	if raw := routeCtx.URLParam("id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			v := uint(id)
			entityID = &v
		}
	}
	pattern := routeCtx.RoutePattern()
	if pattern == "" {
		pattern = r.URL.Path
	}
	return parseEntityFromPath(pattern), entityID
}

var entityMap = map[string]string{
	"registration": "user",
	"profile":      "profile",
	"offers":       "offer",
	"offerdetails": "offer_detail",
	"orders":       "order",
	"reviews":      "review",
}

// parseEntityFromPath returns the entity of the last known segment, so that
// /admin/offerdetails/normalize maps to offer_detail
func parseEntityFromPath(path string) string {
	entity := "unknown"
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if name, ok := entityMap[part]; ok {
			entity = name
		}
	}
	return entity
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "" || strings.HasPrefix(ct, "application/json")
}

// responseCapture wraps ResponseWriter to capture the status code
type responseCapture struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseCapture) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
