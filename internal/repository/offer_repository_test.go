package repository_test

import (
	"context"
	"testing"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/repository"
	"github.com/coderr/marketplace-api/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferRepository_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOfferRepository(db)
	business := testutil.CreateTestUser(t, db, "builder", domain.ProfileTypeBusiness)
	ctx := context.Background()

	offer := &domain.Offer{UserID: business.ID, Title: "Logo Design"}
	details := []domain.OfferDetail{
		{Price: decimal.NewFromInt(50), OfferType: testutil.Ptr(domain.OfferTypeBasic), DeliveryTime: 2},
		{Price: decimal.NewFromInt(90), OfferType: testutil.Ptr(domain.OfferTypeStandard), DeliveryTime: 4},
		{Price: decimal.NewFromInt(150), OfferType: testutil.Ptr(domain.OfferTypePremium), DeliveryTime: 6},
	}
	require.NoError(t, repo.Create(ctx, offer, details))
	assert.NotZero(t, offer.ID)

	loaded, err := repo.GetByID(ctx, offer.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Details, 3)
	assert.Equal(t, domain.OfferTypeBasic, *loaded.Details[0].OfferType)
	assert.Equal(t, business.ID, loaded.User.ID)
}

func TestOfferRepository_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOfferRepository(db)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, db, "alice", domain.ProfileTypeBusiness)
	bob := testutil.CreateTestUser(t, db, "bob", domain.ProfileTypeBusiness)

	cheap := testutil.CreateTestOffer(t, db, alice.ID, "Cheap Website", []testutil.TierSpec{
		{Type: domain.OfferTypeBasic, Price: 10, Days: 3},
		{Type: domain.OfferTypeStandard, Price: 20, Days: 6},
		{Type: domain.OfferTypePremium, Price: 30, Days: 9},
	})
	pricey := testutil.CreateTestOffer(t, db, bob.ID, "Premium API", testutil.DefaultTiers)

	legacy := &domain.Offer{UserID: bob.ID, Title: "Old Bugfix", Description: "legacy rows"}
	require.NoError(t, db.Create(legacy).Error)
	testutil.CreateLegacyDetail(t, db, legacy.ID, "Basic", 2, 500)

	t.Run("no filters returns all offers with aggregates", func(t *testing.T) {
		results, total, err := repo.List(ctx, nil, repository.ParseOrdering("min_price"), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, results, 3)
		assert.Equal(t, cheap.ID, results[0].Offer.ID)
		assert.Equal(t, 10.0, results[0].MinPrice)
		assert.Equal(t, 3, results[0].MinDeliveryTime)
		assert.Equal(t, pricey.ID, results[1].Offer.ID)
		assert.Len(t, results[1].Offer.Details, 3)
	})

	t.Run("legacy delivery time is used when canonical is empty", func(t *testing.T) {
		results, _, err := repo.List(ctx, nil, repository.ParseOrdering("-min_price"), 1, 10)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, legacy.ID, results[0].Offer.ID)
		assert.Equal(t, 2, results[0].MinDeliveryTime)
	})

	t.Run("filter by creator", func(t *testing.T) {
		results, total, err := repo.List(ctx, &repository.OfferFilters{CreatorID: &alice.ID}, repository.ParseOrdering("-updated_at"), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, results, 1)
		assert.Equal(t, cheap.ID, results[0].Offer.ID)
	})

	t.Run("filter by min price", func(t *testing.T) {
		_, total, err := repo.List(ctx, &repository.OfferFilters{MinPrice: testutil.Ptr(100.0)}, repository.ParseOrdering("min_price"), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("filter by max delivery time", func(t *testing.T) {
		results, total, err := repo.List(ctx, &repository.OfferFilters{MaxDeliveryTime: testutil.Ptr(3)}, repository.ParseOrdering("min_price"), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, results, 2)
		assert.Equal(t, cheap.ID, results[0].Offer.ID)
		assert.Equal(t, legacy.ID, results[1].Offer.ID)
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		results, total, err := repo.List(ctx, &repository.OfferFilters{Search: "website"}, repository.ParseOrdering(""), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, results, 1)
		assert.Equal(t, "Cheap Website", results[0].Offer.Title)
	})

	t.Run("pagination keeps total", func(t *testing.T) {
		results, total, err := repo.List(ctx, nil, repository.ParseOrdering("min_price"), 2, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, results, 1)
		assert.Equal(t, legacy.ID, results[0].Offer.ID)
	})
}

func TestOfferRepository_GetWithStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOfferRepository(db)
	business := testutil.CreateTestUser(t, db, "stats", domain.ProfileTypeBusiness)
	offer := testutil.CreateTestOffer(t, db, business.ID, "Stats Offer", testutil.DefaultTiers)

	result, err := repo.GetWithStats(context.Background(), offer.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.MinPrice)
	assert.Equal(t, 5, result.MinDeliveryTime)
	assert.Len(t, result.Offer.Details, 3)
}

func TestOfferRepository_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOfferRepository(db)
	business := testutil.CreateTestUser(t, db, "deleter", domain.ProfileTypeBusiness)
	offer := testutil.CreateTestOffer(t, db, business.ID, "Short Lived", testutil.DefaultTiers)
	ctx := context.Background()

	require.NoError(t, repo.Delete(ctx, offer.ID))

	var remaining int64
	require.NoError(t, db.Model(&domain.OfferDetail{}).Where("offer_id = ?", offer.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	err := repo.Delete(ctx, offer.ID)
	assert.Error(t, err)
}
