package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/mapper"
	"github.com/coderr/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReviewListParams are the parsed query parameters of the review list
type ReviewListParams struct {
	Filters  repository.ReviewFilters
	Ordering string
}

// ReviewOrderings lists the accepted ordering values for reviews
var ReviewOrderings = []string{"updated_at", "-updated_at", "rating", "-rating"}

const (
	defaultReviewOrdering = "-updated_at"
	msgDuplicateReview    = "You have already reviewed this business user."
)

type ReviewService struct {
	db          *gorm.DB
	reviewRepo  *repository.ReviewRepository
	profileRepo *repository.ProfileRepository
	logger      *zap.Logger
}

func NewReviewService(
	db *gorm.DB,
	reviewRepo *repository.ReviewRepository,
	profileRepo *repository.ProfileRepository,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		db:          db,
		reviewRepo:  reviewRepo,
		profileRepo: profileRepo,
		logger:      logger,
	}
}

// Create records a customer's review of a business user. One review per
// (reviewer, business user) pair.
func (s *ReviewService) Create(ctx context.Context, req *domain.CreateReviewRequest) (*domain.ReviewDTO, error) {
	userCtx, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	var review *domain.Review
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profileRepo := s.profileRepo.WithTx(tx)
		reviewRepo := s.reviewRepo.WithTx(tx)

		profile, err := profileRepo.GetByUserID(ctx, userCtx.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get profile: %w", err)
		}
		if !hasRole(profile, domain.ProfileTypeCustomer) {
			return Forbidden("only customers may create reviews")
		}

		target, err := profileRepo.GetByUserID(ctx, req.BusinessUser)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get business profile: %w", err)
		}
		if !hasRole(target, domain.ProfileTypeBusiness) {
			return NewFieldError("business_user", "Must reference a user with a business profile.")
		}
		if req.BusinessUser == userCtx.UserID {
			return NewNonFieldError("You cannot review yourself.")
		}

		exists, err := reviewRepo.Exists(ctx, userCtx.UserID, req.BusinessUser)
		if err != nil {
			return fmt.Errorf("failed to check existing review: %w", err)
		}
		if exists {
			return NewNonFieldError(msgDuplicateReview)
		}
		if req.Rating < 1 || req.Rating > 5 {
			return NewFieldError("rating", "Ensure this value is between 1 and 5.")
		}

		review = &domain.Review{
			BusinessUserID: req.BusinessUser,
			ReviewerID:     userCtx.UserID,
			Rating:         req.Rating,
			Description:    req.Description,
		}
		if err := reviewRepo.Create(ctx, review); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return NewNonFieldError(msgDuplicateReview)
			}
			return fmt.Errorf("failed to create review: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("review created",
		zap.Uint("review_id", review.ID),
		zap.Uint("business_user_id", review.BusinessUserID),
		zap.Uint("reviewer_id", review.ReviewerID),
	)
	dto := mapper.ToReviewDTO(review)
	return &dto, nil
}

// Update patches rating and description. Only the author may do this.
func (s *ReviewService) Update(ctx context.Context, id uint, payload map[string]any, method string) (*domain.ReviewDTO, error) {
	userCtx, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	review, err := s.getReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isOwner(userCtx, review.ReviewerID) {
		return nil, Forbidden("only the author may change this review")
	}
	if method != "PATCH" {
		return nil, errOnlyPatch
	}
	if !onlyKeys(payload, "rating", "description") {
		return nil, NewNonFieldError("Only rating and description may be updated.")
	}

	fields := map[string]interface{}{}
	if raw, ok := payload["rating"]; ok {
		rating, ok := wholeNumber(raw)
		if !ok || rating < 1 || rating > 5 {
			return nil, NewFieldError("rating", "Ensure this value is between 1 and 5.")
		}
		fields["rating"] = rating
	}
	if raw, ok := payload["description"]; ok {
		description, ok := raw.(string)
		if !ok {
			return nil, NewFieldError("description", "Not a valid string.")
		}
		fields["description"] = description
	}

	if err := s.reviewRepo.UpdateFields(ctx, review, fields); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	if rating, ok := fields["rating"].(int); ok {
		review.Rating = rating
	}
	if description, ok := fields["description"].(string); ok {
		review.Description = description
	}
	dto := mapper.ToReviewDTO(review)
	return &dto, nil
}

// Delete removes a review. Only the author may do this.
func (s *ReviewService) Delete(ctx context.Context, id uint) error {
	userCtx, err := requirePrincipal(ctx)
	if err != nil {
		return err
	}
	review, err := s.getReview(ctx, id)
	if err != nil {
		return err
	}
	if !isOwner(userCtx, review.ReviewerID) {
		return Forbidden("only the author may delete this review")
	}
	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

func (s *ReviewService) GetByID(ctx context.Context, id uint) (*domain.ReviewDTO, error) {
	review, err := s.getReview(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToReviewDTO(review)
	return &dto, nil
}

// List returns reviews matching the filters, most recently updated first
// unless another ordering is requested
func (s *ReviewService) List(ctx context.Context, params ReviewListParams) ([]domain.ReviewDTO, error) {
	ordering := params.Ordering
	if ordering == "" {
		ordering = defaultReviewOrdering
	}
	if !slices.Contains(ReviewOrderings, ordering) {
		return nil, NewFieldError("ordering", "Invalid value. Allowed: "+strings.Join(ReviewOrderings, ", "))
	}

	reviews, err := s.reviewRepo.List(ctx, &params.Filters, repository.ParseOrdering(ordering))
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	dtos := make([]domain.ReviewDTO, len(reviews))
	for i := range reviews {
		dtos[i] = mapper.ToReviewDTO(&reviews[i])
	}
	return dtos, nil
}

func (s *ReviewService) getReview(ctx context.Context, id uint) (*domain.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// wholeNumber accepts JSON numbers without a fractional part
func wholeNumber(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}
