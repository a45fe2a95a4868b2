package repository

import (
	"context"

	"github.com/coderr/marketplace-api/internal/domain"
	"gorm.io/gorm"
)

// ReviewFilters holds the optional filters for review listing
type ReviewFilters struct {
	BusinessUserID *uint
	ReviewerID     *uint
}

// ReviewStats are the platform-wide rating aggregates
type ReviewStats struct {
	Count         int64
	AverageRating float64
}

var reviewSortFields = map[string]string{
	"updated_at": "updated_at",
	"rating":     "rating",
}

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ReviewRepository) WithTx(tx *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: tx}
}

func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *ReviewRepository) GetByID(ctx context.Context, id uint) (*domain.Review, error) {
	var review domain.Review
	err := r.db.WithContext(ctx).First(&review, id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Exists reports whether the reviewer already reviewed the business user
func (r *ReviewRepository) Exists(ctx context.Context, reviewerID, businessUserID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Review{}).
		Where("reviewer_id = ? AND business_user_id = ?", reviewerID, businessUserID).
		Count(&count).Error
	return count > 0, err
}

// List returns the reviews matching filters. An unknown ordering field falls
// back to updated_at.
func (r *ReviewRepository) List(ctx context.Context, filters *ReviewFilters, sort SortConfig) ([]domain.Review, error) {
	var reviews []domain.Review
	query := r.db.WithContext(ctx).Model(&domain.Review{})
	if filters != nil {
		if filters.BusinessUserID != nil {
			query = query.Where("business_user_id = ?", *filters.BusinessUserID)
		}
		if filters.ReviewerID != nil {
			query = query.Where("reviewer_id = ?", *filters.ReviewerID)
		}
	}
	err := query.
		Order(BuildOrderClause(sort, reviewSortFields, "updated_at")).
		Order("id ASC").
		Find(&reviews).Error
	return reviews, err
}

// UpdateFields updates the given columns and refreshes updated_at
func (r *ReviewRepository) UpdateFields(ctx context.Context, review *domain.Review, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(review).Updates(fields).Error
}

func (r *ReviewRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Review{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Stats returns the review count and average rating. The average is zero
// when there are no reviews.
func (r *ReviewRepository) Stats(ctx context.Context) (*ReviewStats, error) {
	var row struct {
		Count         int64
		AverageRating float64
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average_rating").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &ReviewStats{Count: row.Count, AverageRating: row.AverageRating}, nil
}
