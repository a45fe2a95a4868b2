package repository_test

import (
	"testing"

	"github.com/coderr/marketplace-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

func TestParseOrdering(t *testing.T) {
	tests := []struct {
		input string
		want  repository.SortConfig
	}{
		{"rating", repository.SortConfig{Field: "rating", Order: repository.SortOrderAsc}},
		{"-updated_at", repository.SortConfig{Field: "updated_at", Order: repository.SortOrderDesc}},
		{"", repository.SortConfig{Field: "", Order: repository.SortOrderAsc}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, repository.ParseOrdering(tt.input))
		})
	}
}

func TestBuildOrderClause(t *testing.T) {
	fields := map[string]string{"rating": "reviews.rating"}

	assert.Equal(t, "reviews.rating DESC",
		repository.BuildOrderClause(repository.ParseOrdering("-rating"), fields, "updated_at"))
	assert.Equal(t, "updated_at ASC",
		repository.BuildOrderClause(repository.ParseOrdering("unknown"), fields, "updated_at"))
}
