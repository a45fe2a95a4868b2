package handler_test

import (
	"net/http"
	"testing"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaintenanceHandler_NormalizeOfferDetails(t *testing.T) {
	env := newTestEnv(t)
	staff := testutil.CreateStaffUser(t, env.db, "admin")
	biz := testutil.CreateTestUser(t, env.db, "studio", domain.ProfileTypeBusiness)
	offer := testutil.CreateTestOffer(t, env.db, biz.ID, "Logo", nil)
	testutil.CreateLegacyDetail(t, env.db, offer.ID, "Premium", 21, 500)

	t.Run("invalid flag", func(t *testing.T) {
		w := serve(env.maintenance.NormalizeOfferDetails, as(newRequest(t, http.MethodPost, "/admin/offerdetails/normalize?dry_run=maybe", nil), staff))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[domain.APIError](t, w).Errors, "dry_run")
	})

	t.Run("dry run reports", func(t *testing.T) {
		w := serve(env.maintenance.NormalizeOfferDetails, as(newRequest(t, http.MethodPost, "/admin/offerdetails/normalize?dry_run=true", nil), staff))
		require.Equal(t, http.StatusOK, w.Code)

		report := decode[domain.NormalizationReport](t, w)
		assert.True(t, report.DryRun)
		assert.Equal(t, 1, report.Scanned)
		assert.Equal(t, 1, report.Changed)
	})

	t.Run("writes", func(t *testing.T) {
		w := serve(env.maintenance.NormalizeOfferDetails, as(newRequest(t, http.MethodPost, "/admin/offerdetails/normalize", nil), staff))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, decode[domain.NormalizationReport](t, w).Changed)

		var detail domain.OfferDetail
		require.NoError(t, env.db.Where("offer_id = ?", offer.ID).First(&detail).Error)
		require.NotNil(t, detail.OfferType)
		assert.Equal(t, domain.OfferTypePremium, *detail.OfferType)
	})
}
