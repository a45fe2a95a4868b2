// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coderr/marketplace-api/internal/database"
	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// SetupTestDB opens a migrated in-memory SQLite database. A single
// connection is used so every query sees the same memory database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
	})
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateTestUser inserts a user with a profile of the given type
func CreateTestUser(t *testing.T, db *gorm.DB, username string, profileType domain.ProfileType) *domain.User {
	t.Helper()

	n := seq.Add(1)
	user := &domain.User{
		Username:     username,
		Email:        fmt.Sprintf("%s-%d@example.com", username, n),
		PasswordHash: "not-a-real-hash",
		FirstName:    "Test",
		LastName:     username,
		DateJoined:   time.Now().UTC(),
	}
	require.NoError(t, db.Create(user).Error)

	profile := &domain.Profile{UserID: user.ID, Type: profileType}
	require.NoError(t, db.Create(profile).Error)
	user.Profile = profile
	return user
}

// CreateStaffUser inserts a staff user without a profile
func CreateStaffUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()

	user := &domain.User{
		Username:     username,
		Email:        fmt.Sprintf("%s-%d@example.com", username, seq.Add(1)),
		PasswordHash: "not-a-real-hash",
		IsStaff:      true,
		DateJoined:   time.Now().UTC(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// TierSpec describes one tier for CreateTestOffer
type TierSpec struct {
	Type  domain.OfferType
	Price int64
	Days  int
}

// DefaultTiers are basic=100/5, standard=200/10, premium=300/20
var DefaultTiers = []TierSpec{
	{Type: domain.OfferTypeBasic, Price: 100, Days: 5},
	{Type: domain.OfferTypeStandard, Price: 200, Days: 10},
	{Type: domain.OfferTypePremium, Price: 300, Days: 20},
}

// CreateTestOffer inserts an offer owned by ownerID with the given tiers
func CreateTestOffer(t *testing.T, db *gorm.DB, ownerID uint, title string, tiers []TierSpec) *domain.Offer {
	t.Helper()

	offer := &domain.Offer{UserID: ownerID, Title: title, Description: title + " description"}
	require.NoError(t, db.Create(offer).Error)

	for _, tier := range tiers {
		tierType := tier.Type
		days := tier.Days
		revisions := 1
		detailTitle := string(tier.Type) + " package"
		features := datatypes.NewJSONSlice([]string{"Feature A"})
		detail := domain.OfferDetail{
			OfferID:            offer.ID,
			Price:              decimal.NewFromInt(tier.Price),
			Title:              &detailTitle,
			OfferType:          &tierType,
			DeliveryTimeInDays: &days,
			DeliveryTime:       days,
			Revisions:          &revisions,
			Features:           &features,
			Name:               detailTitle,
		}
		require.NoError(t, db.Create(&detail).Error)
		offer.Details = append(offer.Details, detail)
	}
	return offer
}

// CreateLegacyDetail inserts a detail that only carries the legacy name and
// delivery_time fields.
func CreateLegacyDetail(t *testing.T, db *gorm.DB, offerID uint, name string, deliveryTime int, price int64) *domain.OfferDetail {
	t.Helper()

	detail := &domain.OfferDetail{
		OfferID:      offerID,
		Price:        decimal.NewFromInt(price),
		Name:         name,
		DeliveryTime: deliveryTime,
	}
	require.NoError(t, db.Omit("Revisions").Create(detail).Error)
	return detail
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
