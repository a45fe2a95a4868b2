package service_test

import (
	"context"
	"testing"

	"github.com/coderr/marketplace-api/internal/auth"
	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/repository"
	"github.com/coderr/marketplace-api/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testServices struct {
	offers   *service.OfferService
	orders   *service.OrderService
	reviews  *service.ReviewService
	profiles *service.ProfileService
	base     *service.DashboardService
}

func newTestServices(t *testing.T, db *gorm.DB) *testServices {
	t.Helper()
	logger := zap.NewNop()

	offerRepo := repository.NewOfferRepository(db)
	detailRepo := repository.NewOfferDetailRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	userRepo := repository.NewUserRepository(db)

	return &testServices{
		offers:   service.NewOfferService(db, offerRepo, detailRepo, profileRepo, logger),
		orders:   service.NewOrderService(db, orderRepo, detailRepo, profileRepo, logger),
		reviews:  service.NewReviewService(db, reviewRepo, profileRepo, logger),
		profiles: service.NewProfileService(db, userRepo, profileRepo, logger),
		base:     service.NewDashboardService(reviewRepo, profileRepo, offerRepo, logger),
	}
}

// asUser returns a context carrying the user as the principal
func asUser(user *domain.User) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsStaff:  user.IsStaff,
	})
}

func detailOf(offer *domain.Offer, offerType domain.OfferType) *domain.OfferDetail {
	for i := range offer.Details {
		if offer.Details[i].OfferType != nil && *offer.Details[i].OfferType == offerType {
			return &offer.Details[i]
		}
	}
	return nil
}
