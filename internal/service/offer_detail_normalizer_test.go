package service_test

import (
	"context"
	"testing"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/repository"
	"github.com/coderr/marketplace-api/internal/service"
	"github.com/coderr/marketplace-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func TestNormalizeOfferDetail(t *testing.T) {
	features := datatypes.NewJSONSlice([]string{"Logo", "Icons"})

	tests := []struct {
		name   string
		detail domain.OfferDetail
		want   domain.CanonicalDetail
	}{
		{
			name:   "legacy only",
			detail: domain.OfferDetail{Name: "Standard", DeliveryTime: 7},
			want: domain.CanonicalDetail{
				Title: "Standard", OfferType: domain.OfferTypeStandard, DeliveryTimeInDays: 7, Features: []string{},
			},
		},
		{
			name:   "legacy name is trimmed",
			detail: domain.OfferDetail{Name: "  Premium  ", DeliveryTime: 3},
			want: domain.CanonicalDetail{
				Title: "Premium", OfferType: domain.OfferTypePremium, DeliveryTimeInDays: 3, Features: []string{},
			},
		},
		{
			name:   "nothing set falls back to defaults",
			detail: domain.OfferDetail{},
			want: domain.CanonicalDetail{
				Title: service.DefaultDetailTitle, OfferType: domain.OfferTypeBasic, Features: []string{},
			},
		},
		{
			name: "canonical fields win over legacy",
			detail: domain.OfferDetail{
				Name:               "Basic",
				DeliveryTime:       1,
				Title:              testutil.Ptr("Gold"),
				OfferType:          testutil.Ptr(domain.OfferTypePremium),
				DeliveryTimeInDays: testutil.Ptr(14),
				Revisions:          testutil.Ptr(3),
				Features:           &features,
			},
			want: domain.CanonicalDetail{
				Title: "Gold", OfferType: domain.OfferTypePremium, DeliveryTimeInDays: 14, Revisions: 3,
				Features: []string{"Logo", "Icons"},
			},
		},
		{
			name: "blank title and zero days fall back",
			detail: domain.OfferDetail{
				Name:               "Basic",
				DeliveryTime:       4,
				Title:              testutil.Ptr("   "),
				OfferType:          testutil.Ptr(domain.OfferType("")),
				DeliveryTimeInDays: testutil.Ptr(0),
			},
			want: domain.CanonicalDetail{
				Title: "Basic", OfferType: domain.OfferTypeBasic, DeliveryTimeInDays: 4, Features: []string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.NormalizeOfferDetail(&tt.detail))
		})
	}
}

func TestNormalizeOfferDetail_Idempotent(t *testing.T) {
	details := []domain.OfferDetail{
		{Name: "Standard", DeliveryTime: 7},
		{},
		{Title: testutil.Ptr("Only title"), DeliveryTimeInDays: testutil.Ptr(2)},
	}

	for i := range details {
		detail := &details[i]
		first := service.NormalizeOfferDetail(detail)
		assert.True(t, service.ApplyCanonical(detail, first))

		second := service.NormalizeOfferDetail(detail)
		assert.Equal(t, first, second)
		assert.False(t, service.ApplyCanonical(detail, second), "second pass must not change anything")
	}
}

func TestOfferDetailNormalizer_NormalizeAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	business := testutil.CreateTestUser(t, db, "legacyshop", domain.ProfileTypeBusiness)
	offer := testutil.CreateTestOffer(t, db, business.ID, "Mixed", nil)
	testutil.CreateLegacyDetail(t, db, offer.ID, "Standard", 7, 200)
	testutil.CreateLegacyDetail(t, db, offer.ID, "Premium", 14, 300)
	canonical := testutil.CreateTestOffer(t, db, business.ID, "Modern", testutil.DefaultTiers)

	normalizer := service.NewOfferDetailNormalizer(db, repository.NewOfferDetailRepository(db), zap.NewNop())

	t.Run("dry run reports without writing", func(t *testing.T) {
		report, err := normalizer.NormalizeAll(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, 5, report.Scanned)
		assert.Equal(t, 2, report.Changed)
		assert.True(t, report.DryRun)

		var pending int64
		require.NoError(t, db.Model(&domain.OfferDetail{}).Where("offer_type IS NULL").Count(&pending).Error)
		assert.Equal(t, int64(2), pending)
	})

	t.Run("persist then nothing left to change", func(t *testing.T) {
		report, err := normalizer.NormalizeAll(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Changed)

		details, err := repository.NewOfferDetailRepository(db).ListByOffer(ctx, offer.ID)
		require.NoError(t, err)
		require.Len(t, details, 2)
		assert.Equal(t, domain.OfferTypeStandard, *details[0].OfferType)
		assert.Equal(t, 7, *details[0].DeliveryTimeInDays)
		assert.Equal(t, "Standard", *details[0].Title)
		require.NotNil(t, details[0].Features)
		assert.Empty(t, *details[0].Features)

		again, err := normalizer.NormalizeAll(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, 0, again.Changed)
		assert.Equal(t, 5, again.Scanned)
	})

	t.Run("canonical rows are untouched", func(t *testing.T) {
		details, err := repository.NewOfferDetailRepository(db).ListByOffer(ctx, canonical.ID)
		require.NoError(t, err)
		require.Len(t, details, 3)
		assert.Equal(t, "basic package", *details[0].Title)
	})
}

func TestOfferDetailNormalizer_NormalizeAll_FreeFormLegacyNames(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	business := testutil.CreateTestUser(t, db, "agency", domain.ProfileTypeBusiness)
	offer := testutil.CreateTestOffer(t, db, business.ID, "Websites", nil)
	legacy := testutil.CreateLegacyDetail(t, db, offer.ID, "Website Design", 7, 100)

	normalizer := service.NewOfferDetailNormalizer(db, repository.NewOfferDetailRepository(db), zap.NewNop())

	report, err := normalizer.NormalizeAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Changed)
	assert.Zero(t, report.TierConflicts)

	stored, err := repository.NewOfferDetailRepository(db).GetByID(ctx, legacy.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.OfferType)
	assert.Equal(t, domain.OfferType("website design"), *stored.OfferType)
	assert.Equal(t, "Website Design", *stored.Title)
	assert.Equal(t, 7, *stored.DeliveryTimeInDays)
}

func TestOfferDetailNormalizer_NormalizeAll_TierAlreadyTaken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	business := testutil.CreateTestUser(t, db, "oldshop", domain.ProfileTypeBusiness)
	offer := testutil.CreateTestOffer(t, db, business.ID, "Logo", testutil.DefaultTiers)
	duplicate := testutil.CreateLegacyDetail(t, db, offer.ID, "Basic", 4, 80)
	empty := &domain.Offer{UserID: business.ID, Title: "Blank names"}
	require.NoError(t, db.Create(empty).Error)
	firstBlank := testutil.CreateLegacyDetail(t, db, empty.ID, "", 3, 50)
	secondBlank := testutil.CreateLegacyDetail(t, db, empty.ID, "", 5, 60)

	repo := repository.NewOfferDetailRepository(db)
	normalizer := service.NewOfferDetailNormalizer(db, repo, zap.NewNop())

	t.Run("dry run sees conflicts", func(t *testing.T) {
		report, err := normalizer.NormalizeAll(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, 3, report.Changed)
		assert.Equal(t, 2, report.TierConflicts)
	})

	t.Run("persist leaves conflicting tier keys empty", func(t *testing.T) {
		report, err := normalizer.NormalizeAll(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, 3, report.Changed)
		assert.Equal(t, 2, report.TierConflicts)

		stored, err := repo.GetByID(ctx, duplicate.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.OfferType)
		assert.Equal(t, "Basic", *stored.Title)
		assert.Equal(t, 4, *stored.DeliveryTimeInDays)

		first, err := repo.GetByID(ctx, firstBlank.ID)
		require.NoError(t, err)
		require.NotNil(t, first.OfferType)
		assert.Equal(t, domain.OfferTypeBasic, *first.OfferType)

		second, err := repo.GetByID(ctx, secondBlank.ID)
		require.NoError(t, err)
		assert.Nil(t, second.OfferType)
		assert.Equal(t, service.DefaultDetailTitle, *second.Title)
	})

	t.Run("second pass changes nothing", func(t *testing.T) {
		report, err := normalizer.NormalizeAll(ctx, false)
		require.NoError(t, err)
		assert.Zero(t, report.Changed)
		assert.Equal(t, 2, report.TierConflicts)
	})
}
