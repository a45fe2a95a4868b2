package handler_test

import (
	"net/http"
	"testing"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardHandler_BaseInfo(t *testing.T) {
	env := newTestEnv(t)

	t.Run("empty platform", func(t *testing.T) {
		w := serve(env.dashboard.BaseInfo, newRequest(t, http.MethodGet, "/base-info", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, domain.BaseInfoDTO{}, decode[domain.BaseInfoDTO](t, w))
	})

	t.Run("counts", func(t *testing.T) {
		biz := testutil.CreateTestUser(t, env.db, "studio", domain.ProfileTypeBusiness)
		testutil.CreateTestOffer(t, env.db, biz.ID, "Logo", testutil.DefaultTiers)

		w := serve(env.dashboard.BaseInfo, newRequest(t, http.MethodGet, "/base-info", nil))
		require.Equal(t, http.StatusOK, w.Code)

		info := decode[domain.BaseInfoDTO](t, w)
		assert.EqualValues(t, 1, info.BusinessProfileCount)
		assert.EqualValues(t, 1, info.OfferCount)
		assert.EqualValues(t, 0, info.ReviewCount)
	})
}
