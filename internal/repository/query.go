package repository

import (
	"strings"

	"gorm.io/gorm"
)

// MaxPageSize is the maximum allowed page size for paginated queries
const MaxPageSize = 100

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// SortConfig holds sorting configuration for list queries
type SortConfig struct {
	Field string // API field name
	Order SortOrder
}

// ParseOrdering turns an "ordering" parameter ("rating", "-updated_at") into
// a SortConfig. A leading "-" means descending.
func ParseOrdering(ordering string) SortConfig {
	if strings.HasPrefix(ordering, "-") {
		return SortConfig{Field: strings.TrimPrefix(ordering, "-"), Order: SortOrderDesc}
	}
	return SortConfig{Field: ordering, Order: SortOrderAsc}
}

// BuildOrderClause builds the ORDER BY clause from a whitelist of API field
// names to columns. Unknown fields fall back to defaultColumn.
func BuildOrderClause(config SortConfig, fieldMap map[string]string, defaultColumn string) string {
	column, ok := fieldMap[config.Field]
	if !ok {
		column = defaultColumn
	}

	order := "DESC"
	if config.Order == SortOrderAsc {
		order = "ASC"
	}
	return column + " " + order
}

// Paginate applies limit/offset for a 1-based page number
func Paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}

// likePattern builds a case-insensitive LIKE pattern for LOWER(column)
func likePattern(search string) string {
	return "%" + strings.ToLower(search) + "%"
}
