package service

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/coderr/marketplace-api/internal/auth"
	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// sensitiveKeys are stripped from audited payloads
var sensitiveKeys = []string{"password", "repeated_password", "token", "secret", "api_key"}

// AuditLogService handles audit logging operations
type AuditLogService struct {
	auditRepo *repository.AuditLogRepository
	logger    *zap.Logger
}

// NewAuditLogService creates a new audit log service
func NewAuditLogService(auditRepo *repository.AuditLogRepository, logger *zap.Logger) *AuditLogService {
	return &AuditLogService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// LogEntry represents the input for creating an audit log entry
type LogEntry struct {
	Action     domain.AuditAction
	EntityType string
	EntityID   *uint
	NewValues  map[string]interface{}
}

// Log creates an audit log entry from the principal in ctx and the request
func (s *AuditLogService) Log(ctx context.Context, r *http.Request, entry LogEntry) error {
	auditLog := &domain.AuditLog{
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		PerformedAt: time.Now().UTC(),
	}

	if userCtx, ok := auth.FromContext(ctx); ok {
		auditLog.Username = userCtx.Username
		if !userCtx.IsSystem {
			id := userCtx.UserID
			auditLog.UserID = &id
		}
	}

	if r != nil {
		auditLog.IPAddress = clientIP(r)
		auditLog.UserAgent = r.UserAgent()
		auditLog.RequestID = r.Header.Get("X-Request-ID")
	}

	values := "null"
	if entry.NewValues != nil {
		for _, key := range sensitiveKeys {
			delete(entry.NewValues, key)
		}
		if data, err := json.Marshal(entry.NewValues); err == nil {
			values = string(data)
		}
	}
	auditLog.NewValues = datatypes.JSON(values)

	if err := s.auditRepo.Create(ctx, auditLog); err != nil {
		s.logger.Error("failed to create audit log",
			zap.String("action", string(entry.Action)),
			zap.String("entity_type", entry.EntityType),
			zap.Error(err))
		return err
	}
	return nil
}

// AuditLogQueryParams represents query parameters for listing audit logs
type AuditLogQueryParams struct {
	Filter   repository.AuditLogFilter
	Page     int
	PageSize int
}

// List retrieves audit logs with filters
func (s *AuditLogService) List(ctx context.Context, params AuditLogQueryParams) ([]domain.AuditLogDTO, int64, error) {
	logs, total, err := s.auditRepo.List(ctx, &params.Filter, params.Page, params.PageSize)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]domain.AuditLogDTO, len(logs))
	for i, log := range logs {
		dtos[i] = domain.AuditLogDTO{
			ID:          log.ID,
			UserID:      log.UserID,
			Username:    log.Username,
			Action:      log.Action,
			EntityType:  log.EntityType,
			EntityID:    log.EntityID,
			NewValues:   json.RawMessage(log.NewValues),
			IPAddress:   log.IPAddress,
			RequestID:   log.RequestID,
			PerformedAt: log.PerformedAt,
		}
	}
	return dtos, total, nil
}

// clientIP extracts the client IP from the request
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
