package handler_test

import (
	"net/http"
	"testing"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewHandler(t *testing.T) {
	env := newTestEnv(t)
	biz := testutil.CreateTestUser(t, env.db, "studio", domain.ProfileTypeBusiness)
	customer := testutil.CreateTestUser(t, env.db, "buyer", domain.ProfileTypeCustomer)
	stranger := testutil.CreateTestUser(t, env.db, "other", domain.ProfileTypeCustomer)

	body := map[string]interface{}{"business_user": biz.ID, "rating": 4, "description": "Solid work"}
	w := serve(env.reviews.Create, as(newRequest(t, http.MethodPost, "/reviews", body), customer))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	review := decode[domain.ReviewDTO](t, w)
	assert.Equal(t, customer.ID, review.Reviewer)
	id := idString(review.ID)

	t.Run("second review is rejected", func(t *testing.T) {
		w := serve(env.reviews.Create, as(newRequest(t, http.MethodPost, "/reviews", body), customer))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "You have already reviewed this business user.",
			decode[domain.APIError](t, w).Errors[domain.NonFieldErrorsKey])
	})

	t.Run("rating out of range", func(t *testing.T) {
		bad := map[string]interface{}{"business_user": biz.ID, "rating": 9}
		w := serve(env.reviews.Create, as(newRequest(t, http.MethodPost, "/reviews", bad), stranger))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[domain.APIError](t, w).Errors, "rating")
	})

	t.Run("list filtered", func(t *testing.T) {
		target := "/reviews?business_user_id=" + idString(biz.ID) + "&ordering=-rating"
		w := serve(env.reviews.List, as(newRequest(t, http.MethodGet, target, nil), stranger))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]domain.ReviewDTO](t, w), 1)

		w = serve(env.reviews.List, as(newRequest(t, http.MethodGet, "/reviews?reviewer_id=abc", nil), stranger))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("only the author edits", func(t *testing.T) {
		patch := map[string]interface{}{"rating": 5}
		w := serve(env.reviews.Update, withParams(as(newRequest(t, http.MethodPatch, "/reviews/x", patch), stranger), "id", id))
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = serve(env.reviews.Update, withParams(as(newRequest(t, http.MethodPut, "/reviews/x", patch), customer), "id", id))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = serve(env.reviews.Update, withParams(as(newRequest(t, http.MethodPatch, "/reviews/x", patch), customer), "id", id))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 5, decode[domain.ReviewDTO](t, w).Rating)
	})

	t.Run("delete", func(t *testing.T) {
		w := serve(env.reviews.Delete, withParams(as(newRequest(t, http.MethodDelete, "/reviews/x", nil), customer), "id", id))
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = serve(env.reviews.GetByID, withParams(as(newRequest(t, http.MethodGet, "/reviews/x", nil), customer), "id", id))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
