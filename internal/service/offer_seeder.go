package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coderr/marketplace-api/internal/auth"
	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type seedTier struct {
	offerType domain.OfferType
	price     int64
	days      int
	revisions int
	features  []string
}

type seedTemplate struct {
	title       string
	description string
	tiers       [3]seedTier
}

var seedTemplates = []seedTemplate{
	{
		title:       "Website Design",
		description: "Responsive website design from wireframe to handoff.",
		tiers: [3]seedTier{
			{domain.OfferTypeBasic, 100, 7, 2, []string{"Landing page"}},
			{domain.OfferTypeStandard, 250, 14, 5, []string{"Landing page", "Up to 5 pages"}},
			{domain.OfferTypePremium, 500, 21, 10, []string{"Landing page", "Up to 10 pages", "Design system"}},
		},
	},
	{
		title:       "API Development",
		description: "REST API design and implementation with documentation.",
		tiers: [3]seedTier{
			{domain.OfferTypeBasic, 150, 5, 1, []string{"Up to 5 endpoints"}},
			{domain.OfferTypeStandard, 300, 10, 3, []string{"Up to 15 endpoints", "OpenAPI docs"}},
			{domain.OfferTypePremium, 600, 20, 6, []string{"Unlimited endpoints", "OpenAPI docs", "Load testing"}},
		},
	},
	{
		title:       "Bugfix Package",
		description: "Diagnosis and fixes for an existing codebase.",
		tiers: [3]seedTier{
			{domain.OfferTypeBasic, 80, 3, 1, []string{"1 bug"}},
			{domain.OfferTypeStandard, 180, 7, 2, []string{"Up to 5 bugs"}},
			{domain.OfferTypePremium, 350, 14, 4, []string{"Up to 15 bugs", "Regression tests"}},
		},
	},
}

// SeedReport counts what an OfferSeeder run created
type SeedReport struct {
	Businesses int `json:"businesses"`
	Created    int `json:"created"`
	Skipped    int `json:"skipped"`
}

// OfferSeeder fills business accounts with demo offers through the regular
// offer creation path.
type OfferSeeder struct {
	offers      *OfferService
	profileRepo *repository.ProfileRepository
	logger      *zap.Logger
}

func NewOfferSeeder(offers *OfferService, profileRepo *repository.ProfileRepository, logger *zap.Logger) *OfferSeeder {
	return &OfferSeeder{
		offers:      offers,
		profileRepo: profileRepo,
		logger:      logger,
	}
}

// Seed tops every business user up to perBusiness offers. Businesses that
// already have enough offers are skipped, so reruns are harmless.
func (s *OfferSeeder) Seed(ctx context.Context, perBusiness int) (*SeedReport, error) {
	if perBusiness < 1 {
		return nil, NewFieldError("per_business", "Ensure this value is greater than or equal to 1.")
	}

	businesses, err := s.profileRepo.ListByType(ctx, domain.ProfileTypeBusiness)
	if err != nil {
		return nil, fmt.Errorf("failed to list business profiles: %w", err)
	}

	report := &SeedReport{Businesses: len(businesses)}
	for i := range businesses {
		userID := businesses[i].UserID
		creatorID := userID
		_, existing, err := s.offers.List(ctx, OfferListParams{
			Filters:  repository.OfferFilters{CreatorID: &creatorID},
			Page:     1,
			PageSize: 1,
		})
		if err != nil {
			return nil, err
		}

		missing := perBusiness - int(existing)
		if missing <= 0 {
			report.Skipped++
			continue
		}

		asOwner := auth.WithUserContext(ctx, &auth.UserContext{UserID: userID})
		for n := 0; n < missing; n++ {
			tmpl := seedTemplates[(int(existing)+n)%len(seedTemplates)]
			if _, err := s.offers.Create(asOwner, tmpl.request()); err != nil {
				return nil, fmt.Errorf("failed to seed offer for user %d: %w", userID, err)
			}
			report.Created++
		}
	}

	s.logger.Info("offers seeded",
		zap.Int("businesses", report.Businesses),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (t seedTemplate) request() *domain.CreateOfferRequest {
	req := &domain.CreateOfferRequest{Title: t.title, Description: t.description}
	for _, tier := range t.tiers {
		title := t.title + " " + string(tier.offerType)
		features, _ := json.Marshal(tier.features)
		price := decimal.NewFromInt(tier.price)
		req.Details = append(req.Details, domain.OfferDetailInput{
			Title:              &title,
			Revisions:          &tier.revisions,
			DeliveryTimeInDays: &tier.days,
			Price:              &price,
			Features:           features,
			OfferType:          &tier.offerType,
		})
	}
	return req
}
