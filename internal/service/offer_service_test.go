package service_test

import (
	"encoding/json"
	"testing"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/repository"
	"github.com/coderr/marketplace-api/internal/service"
	"github.com/coderr/marketplace-api/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tierInput(offerType domain.OfferType, price int64, days int) domain.OfferDetailInput {
	p := decimal.NewFromInt(price)
	return domain.OfferDetailInput{
		Title:              testutil.Ptr(string(offerType) + " tier"),
		Revisions:          testutil.Ptr(2),
		DeliveryTimeInDays: testutil.Ptr(days),
		Price:              &p,
		Features:           json.RawMessage(`["Logo","Flyer"]`),
		OfferType:          testutil.Ptr(offerType),
	}
}

func validTiers() []domain.OfferDetailInput {
	return []domain.OfferDetailInput{
		tierInput(domain.OfferTypeBasic, 100, 5),
		tierInput(domain.OfferTypeStandard, 200, 7),
		tierInput(domain.OfferTypePremium, 500, 10),
	}
}

func TestOfferService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTestServices(t, db)

	business := testutil.CreateTestUser(t, db, "designer", domain.ProfileTypeBusiness)
	customer := testutil.CreateTestUser(t, db, "client", domain.ProfileTypeCustomer)

	rowCounts := func(t *testing.T) (int64, int64) {
		var offers, details int64
		require.NoError(t, db.Model(&domain.Offer{}).Count(&offers).Error)
		require.NoError(t, db.Model(&domain.OfferDetail{}).Count(&details).Error)
		return offers, details
	}

	t.Run("creates offer with three tiers", func(t *testing.T) {
		offer, err := svc.offers.Create(asUser(business), &domain.CreateOfferRequest{
			Title:       "Grafikdesign-Paket",
			Description: "Logos and more",
			Details:     validTiers(),
		})
		require.NoError(t, err)

		assert.Equal(t, business.ID, offer.User)
		require.Len(t, offer.Details, 3)
		for _, detail := range offer.Details {
			assert.Equal(t, []string{"Logo", "Flyer"}, detail.Features)
			assert.Equal(t, 2, detail.Revisions)
		}
		assert.Equal(t, domain.OfferTypeBasic, offer.Details[0].OfferType)
		assert.True(t, decimal.NewFromInt(500).Equal(offer.Details[2].Price))
	})

	t.Run("customers cannot create offers", func(t *testing.T) {
		_, err := svc.offers.Create(asUser(customer), &domain.CreateOfferRequest{Title: "Nope", Details: validTiers()})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	invalid := []struct {
		name    string
		details []domain.OfferDetailInput
		field   string
	}{
		{
			name:    "two tiers",
			details: validTiers()[:2],
			field:   "details",
		},
		{
			name: "duplicate tier",
			details: []domain.OfferDetailInput{
				tierInput(domain.OfferTypeBasic, 100, 5),
				tierInput(domain.OfferTypeBasic, 150, 6),
				tierInput(domain.OfferTypePremium, 500, 10),
			},
			field: "details",
		},
		{
			name: "zero delivery days",
			details: []domain.OfferDetailInput{
				tierInput(domain.OfferTypeBasic, 100, 0),
				tierInput(domain.OfferTypeStandard, 200, 7),
				tierInput(domain.OfferTypePremium, 500, 10),
			},
			field: "details[0].delivery_time_in_days",
		},
		{
			name: "negative price",
			details: []domain.OfferDetailInput{
				tierInput(domain.OfferTypeBasic, 100, 5),
				tierInput(domain.OfferTypeStandard, -1, 7),
				tierInput(domain.OfferTypePremium, 500, 10),
			},
			field: "details[1].price",
		},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			offersBefore, detailsBefore := rowCounts(t)

			_, err := svc.offers.Create(asUser(business), &domain.CreateOfferRequest{Title: "Broken", Details: tt.details})
			vErr, ok := service.AsValidationError(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Contains(t, vErr.Fields, tt.field)

			offersAfter, detailsAfter := rowCounts(t)
			assert.Equal(t, offersBefore, offersAfter)
			assert.Equal(t, detailsBefore, detailsAfter)
		})
	}

	t.Run("features must be a list", func(t *testing.T) {
		tiers := validTiers()
		tiers[2].Features = json.RawMessage(`"Logo"`)

		_, err := svc.offers.Create(asUser(business), &domain.CreateOfferRequest{Title: "Broken", Details: tiers})
		vErr, ok := service.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, vErr.Fields, "details[2].features")
	})
}

func TestOfferService_Create_DetailInsertFails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTestServices(t, db)
	business := testutil.CreateTestUser(t, db, "builder", domain.ProfileTypeBusiness)

	require.NoError(t, db.Exec(`CREATE TRIGGER reject_premium_details
		BEFORE INSERT ON offer_details
		WHEN NEW.offer_type = 'premium'
		BEGIN SELECT RAISE(ABORT, 'premium tier rejected'); END`).Error)

	_, err := svc.offers.Create(asUser(business), &domain.CreateOfferRequest{
		Title:   "Half written",
		Details: validTiers(),
	})
	require.Error(t, err)
	_, isValidation := service.AsValidationError(err)
	assert.False(t, isValidation)

	var offers, details int64
	require.NoError(t, db.Model(&domain.Offer{}).Count(&offers).Error)
	require.NoError(t, db.Model(&domain.OfferDetail{}).Count(&details).Error)
	assert.Zero(t, offers, "offer row must roll back with its details")
	assert.Zero(t, details)
}

func TestOfferService_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTestServices(t, db)

	business := testutil.CreateTestUser(t, db, "owner", domain.ProfileTypeBusiness)
	foreign := testutil.CreateTestUser(t, db, "foreign", domain.ProfileTypeBusiness)
	offer := testutil.CreateTestOffer(t, db, business.ID, "Website", testutil.DefaultTiers)

	t.Run("patches only the addressed tier", func(t *testing.T) {
		price := decimal.NewFromInt(250)
		updated, err := svc.offers.Update(asUser(business), offer.ID, &domain.UpdateOfferRequest{
			Title: testutil.Ptr("Website Pro"),
			Details: []domain.OfferDetailInput{{
				OfferType:          testutil.Ptr(domain.OfferTypeStandard),
				Price:              &price,
				DeliveryTimeInDays: testutil.Ptr(12),
			}},
		})
		require.NoError(t, err)

		assert.Equal(t, "Website Pro", updated.Title)
		for _, detail := range updated.Details {
			switch detail.OfferType {
			case domain.OfferTypeStandard:
				assert.True(t, price.Equal(detail.Price))
				assert.Equal(t, 12, detail.DeliveryTimeInDays)
			case domain.OfferTypeBasic:
				assert.True(t, decimal.NewFromInt(100).Equal(detail.Price))
			case domain.OfferTypePremium:
				assert.True(t, decimal.NewFromInt(300).Equal(detail.Price))
			}
		}

		var stored domain.OfferDetail
		require.NoError(t, db.First(&stored, detailOf(offer, domain.OfferTypeStandard).ID).Error)
		assert.Equal(t, 12, stored.DeliveryTime)
	})

	t.Run("foreign business is forbidden", func(t *testing.T) {
		_, err := svc.offers.Update(asUser(foreign), offer.ID, &domain.UpdateOfferRequest{Title: testutil.Ptr("Hijack")})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("tier without offer_type", func(t *testing.T) {
		_, err := svc.offers.Update(asUser(business), offer.ID, &domain.UpdateOfferRequest{
			Details: []domain.OfferDetailInput{{Revisions: testutil.Ptr(3)}},
		})
		vErr, ok := service.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, vErr.Fields, "details[0].offer_type")
	})

	t.Run("mismatched detail id", func(t *testing.T) {
		basic := detailOf(offer, domain.OfferTypeBasic)
		_, err := svc.offers.Update(asUser(business), offer.ID, &domain.UpdateOfferRequest{
			Details: []domain.OfferDetailInput{{ID: &basic.ID, OfferType: testutil.Ptr(domain.OfferTypePremium)}},
		})
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("unknown offer", func(t *testing.T) {
		_, err := svc.offers.Update(asUser(business), 99999, &domain.UpdateOfferRequest{Title: testutil.Ptr("x")})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestOfferService_ListAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTestServices(t, db)

	business := testutil.CreateTestUser(t, db, "owner", domain.ProfileTypeBusiness)
	cheap := testutil.CreateTestOffer(t, db, business.ID, "Cheap", []testutil.TierSpec{
		{Type: domain.OfferTypeBasic, Price: 10, Days: 3},
		{Type: domain.OfferTypeStandard, Price: 20, Days: 4},
		{Type: domain.OfferTypePremium, Price: 30, Days: 5},
	})
	testutil.CreateTestOffer(t, db, business.ID, "Pricey", testutil.DefaultTiers)

	t.Run("ordered by min price", func(t *testing.T) {
		offers, total, err := svc.offers.List(asUser(business), service.OfferListParams{Ordering: "min_price", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, offers, 2)
		assert.Equal(t, cheap.ID, offers[0].ID)
		assert.Equal(t, 10.0, offers[0].MinPrice)
		assert.Equal(t, 3, offers[0].MinDeliveryTime)
	})

	t.Run("invalid ordering", func(t *testing.T) {
		_, _, err := svc.offers.List(asUser(business), service.OfferListParams{Ordering: "title", Page: 1, PageSize: 10})
		vErr, ok := service.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, vErr.Fields, "ordering")
	})

	t.Run("filter by creator", func(t *testing.T) {
		other := testutil.CreateTestUser(t, db, "other", domain.ProfileTypeBusiness)
		_, total, err := svc.offers.List(asUser(business), service.OfferListParams{
			Filters: repository.OfferFilters{CreatorID: &other.ID},
			Page:    1, PageSize: 10,
		})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("retrieve carries aggregates and detail links", func(t *testing.T) {
		summary, err := svc.offers.GetByID(asUser(business), cheap.ID)
		require.NoError(t, err)
		assert.Equal(t, 10.0, summary.MinPrice)
		require.Len(t, summary.Details, 3)
		assert.Contains(t, summary.Details[0].URL, "/offerdetails/")
	})

	t.Run("detail in canonical form", func(t *testing.T) {
		legacy := testutil.CreateLegacyDetail(t, db, cheap.ID, "Premium", 9, 90)

		detail, err := svc.offers.GetDetail(asUser(business), legacy.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OfferTypePremium, detail.OfferType)
		assert.Equal(t, 9, detail.DeliveryTimeInDays)
		assert.Equal(t, "Premium", detail.Title)
		assert.Equal(t, []string{}, detail.Features)
	})
}

func TestOfferService_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTestServices(t, db)

	business := testutil.CreateTestUser(t, db, "owner", domain.ProfileTypeBusiness)
	foreign := testutil.CreateTestUser(t, db, "foreign", domain.ProfileTypeBusiness)
	offer := testutil.CreateTestOffer(t, db, business.ID, "Website", testutil.DefaultTiers)

	assert.ErrorIs(t, svc.offers.Delete(asUser(foreign), offer.ID), service.ErrForbidden)
	require.NoError(t, svc.offers.Delete(asUser(business), offer.ID))
	assert.ErrorIs(t, svc.offers.Delete(asUser(business), offer.ID), service.ErrNotFound)

	var details int64
	require.NoError(t, db.Model(&domain.OfferDetail{}).Where("offer_id = ?", offer.ID).Count(&details).Error)
	assert.Zero(t, details)
}
