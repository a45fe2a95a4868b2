package database_test

import (
	"testing"
	"time"

	"github.com/coderr/marketplace-api/internal/database"
	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrate_Constraints(t *testing.T) {
	// testutil.SetupTestDB builds the schema with database.AutoMigrate
	db := testutil.SetupTestDB(t)
	shop := testutil.CreateTestUser(t, db, "shop", domain.ProfileTypeBusiness)
	buyer := testutil.CreateTestUser(t, db, "buyer", domain.ProfileTypeCustomer)
	offer := testutil.CreateTestOffer(t, db, shop.ID, "Logo", testutil.DefaultTiers)

	t.Run("username is unique ignoring case", func(t *testing.T) {
		err := db.Create(&domain.User{
			Username:     "SHOP",
			Email:        "other-shop@example.com",
			PasswordHash: "x",
			DateJoined:   time.Now().UTC(),
		}).Error
		assert.Error(t, err)
	})

	t.Run("profile type is restricted", func(t *testing.T) {
		user := testutil.CreateStaffUser(t, db, "typeless")
		err := db.Create(&domain.Profile{UserID: user.ID, Type: domain.ProfileType("staff")}).Error
		assert.Error(t, err)
	})

	t.Run("tier key is unique per offer", func(t *testing.T) {
		basic := domain.OfferTypeBasic
		err := db.Create(&domain.OfferDetail{
			OfferID:      offer.ID,
			Price:        decimal.NewFromInt(1),
			OfferType:    &basic,
			DeliveryTime: 1,
		}).Error
		assert.Error(t, err)
	})

	t.Run("details without a tier key may repeat", func(t *testing.T) {
		testutil.CreateLegacyDetail(t, db, offer.ID, "Old one", 3, 10)
		testutil.CreateLegacyDetail(t, db, offer.ID, "Old two", 4, 20)
	})

	t.Run("free form tier keys are stored", func(t *testing.T) {
		custom := domain.OfferType("website design")
		err := db.Create(&domain.OfferDetail{
			OfferID:      offer.ID,
			Price:        decimal.NewFromInt(1),
			OfferType:    &custom,
			DeliveryTime: 1,
		}).Error
		assert.NoError(t, err)
	})

	t.Run("price cannot be negative", func(t *testing.T) {
		err := db.Create(&domain.OfferDetail{
			OfferID:      offer.ID,
			Price:        decimal.NewFromInt(-1),
			DeliveryTime: 1,
		}).Error
		assert.Error(t, err)
	})

	t.Run("order parties differ", func(t *testing.T) {
		err := db.Create(&domain.Order{
			CustomerUserID: shop.ID,
			BusinessUserID: shop.ID,
			Title:          "Self",
			Price:          decimal.NewFromInt(10),
			OfferType:      domain.OfferTypeBasic,
		}).Error
		assert.Error(t, err)
	})

	t.Run("order status is restricted", func(t *testing.T) {
		err := db.Create(&domain.Order{
			CustomerUserID: buyer.ID,
			BusinessUserID: shop.ID,
			Title:          "Odd",
			Price:          decimal.NewFromInt(10),
			OfferType:      domain.OfferTypeBasic,
			Status:         domain.OrderStatus("archived"),
		}).Error
		assert.Error(t, err)
	})

	t.Run("review rating range", func(t *testing.T) {
		err := db.Create(&domain.Review{BusinessUserID: shop.ID, ReviewerID: buyer.ID, Rating: 6}).Error
		assert.Error(t, err)
	})

	t.Run("review is not self authored", func(t *testing.T) {
		err := db.Create(&domain.Review{BusinessUserID: shop.ID, ReviewerID: shop.ID, Rating: 5}).Error
		assert.Error(t, err)
	})
}

func TestHealthCheck(t *testing.T) {
	db := testutil.SetupTestDB(t)

	require.NoError(t, database.HealthCheck(db))

	stats, err := database.HealthCheckWithStats(db)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}
