package handler

import (
	"net/http"
	"time"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/repository"
	"github.com/coderr/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// AuditHandler serves the audit log to staff
type AuditHandler struct {
	auditService *service.AuditLogService
	logger       *zap.Logger
}

func NewAuditHandler(auditService *service.AuditLogService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// List godoc
// @Summary List audit logs
// @Description Paginated audit entries, newest first
// @Tags Admin
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page (max 100)" default(10)
// @Param user_id query int false "Filter by user"
// @Param action query string false "Filter by action" Enums(create, update, delete)
// @Param entity_type query string false "Filter by entity type"
// @Param entity_id query int false "Filter by entity ID"
// @Param start_time query string false "Performed at or after (RFC3339)"
// @Param end_time query string false "Performed at or before (RFC3339)"
// @Success 200 {object} domain.PaginatedResponse{results=[]domain.AuditLogDTO}
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/audit-logs [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	params := service.AuditLogQueryParams{
		Filter: repository.AuditLogFilter{
			UserID:     q.uint("user_id"),
			EntityType: q.string("entity_type"),
			EntityID:   q.uint("entity_id"),
			StartTime:  parseTimeParam(q, "start_time"),
			EndTime:    parseTimeParam(q, "end_time"),
		},
	}
	if action := domain.AuditAction(q.string("action")); action != "" {
		switch action {
		case domain.AuditActionCreate, domain.AuditActionUpdate, domain.AuditActionDelete:
			params.Filter.Action = &action
		default:
			q.errs["action"] = "Must be one of: create, update, delete."
		}
	}
	params.Page, params.PageSize = q.pagination()
	if !q.valid() {
		respondFieldErrors(w, q.errs)
		return
	}

	logs, total, err := h.auditService.List(r.Context(), params)
	if err != nil {
		handleServiceError(w, h.logger, err, "list audit logs")
		return
	}
	respondJSON(w, http.StatusOK, newPaginatedResponse(r, total, params.Page, params.PageSize, logs))
}

func parseTimeParam(q *queryParser, name string) *time.Time {
	raw := q.string(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		q.errs[name] = "Datetime has wrong format. Use RFC3339."
		return nil
	}
	return &t
}
