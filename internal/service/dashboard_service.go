package service

import (
	"context"
	"fmt"
	"math"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/repository"
	"go.uber.org/zap"
)

// DashboardService computes the platform-wide counters
type DashboardService struct {
	reviewRepo  *repository.ReviewRepository
	profileRepo *repository.ProfileRepository
	offerRepo   *repository.OfferRepository
	logger      *zap.Logger
}

func NewDashboardService(
	reviewRepo *repository.ReviewRepository,
	profileRepo *repository.ProfileRepository,
	offerRepo *repository.OfferRepository,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		reviewRepo:  reviewRepo,
		profileRepo: profileRepo,
		offerRepo:   offerRepo,
		logger:      logger,
	}
}

// BaseInfo returns review count, average rating rounded to one decimal,
// business profile count and offer count. Any failing query fails the whole
// result.
func (s *DashboardService) BaseInfo(ctx context.Context) (*domain.BaseInfoDTO, error) {
	stats, err := s.reviewRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get review stats: %w", err)
	}

	businessCount, err := s.profileRepo.CountByType(ctx, domain.ProfileTypeBusiness)
	if err != nil {
		return nil, fmt.Errorf("failed to count business profiles: %w", err)
	}

	offerCount, err := s.offerRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count offers: %w", err)
	}

	average := 0.0
	if stats.Count > 0 {
		average = math.Round(stats.AverageRating*10) / 10
	}

	return &domain.BaseInfoDTO{
		ReviewCount:          stats.Count,
		AverageRating:        average,
		BusinessProfileCount: businessCount,
		OfferCount:           offerCount,
	}, nil
}
