package repository

import (
	"context"
	"time"

	"github.com/coderr/marketplace-api/internal/domain"
	"gorm.io/gorm"
)

// AuditLogFilter represents filter options for querying audit logs
type AuditLogFilter struct {
	UserID     *uint
	Action     *domain.AuditAction
	EntityType string
	EntityID   *uint
	StartTime  *time.Time
	EndTime    *time.Time
}

// AuditLogRepository handles audit log data access
type AuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create inserts a new audit log entry. Entries are append-only.
func (r *AuditLogRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// List retrieves audit logs with pagination and optional filters, newest first
func (r *AuditLogRepository) List(ctx context.Context, filter *AuditLogFilter, page, pageSize int) ([]domain.AuditLog, int64, error) {
	var logs []domain.AuditLog
	var total int64

	query := r.applyFilters(r.db.WithContext(ctx).Model(&domain.AuditLog{}), filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := Paginate(query.Order("performed_at DESC").Order("id DESC"), page, pageSize).Find(&logs).Error
	return logs, total, err
}

func (r *AuditLogRepository) applyFilters(query *gorm.DB, filter *AuditLogFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.StartTime != nil {
		query = query.Where("performed_at >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("performed_at <= ?", *filter.EndTime)
	}
	return query
}
