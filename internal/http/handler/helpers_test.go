package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coderr/marketplace-api/internal/auth"
	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/http/handler"
	"github.com/coderr/marketplace-api/internal/repository"
	"github.com/coderr/marketplace-api/internal/service"
	"github.com/coderr/marketplace-api/internal/storage"
	"github.com/coderr/marketplace-api/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	store       *storage.LocalStorage
	offers      *handler.OfferHandler
	orders      *handler.OrderHandler
	reviews     *handler.ReviewHandler
	profiles    *handler.ProfileHandler
	dashboard   *handler.DashboardHandler
	audit       *handler.AuditHandler
	maintenance *handler.MaintenanceHandler
	auditSvc    *service.AuditLogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	detailRepo := repository.NewOfferDetailRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	auditSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db), logger)

	return &testEnv{
		db:    db,
		store: store,
		offers: handler.NewOfferHandler(
			service.NewOfferService(db, offerRepo, detailRepo, profileRepo, logger), store, 1, logger),
		orders: handler.NewOrderHandler(
			service.NewOrderService(db, orderRepo, detailRepo, profileRepo, logger), logger),
		reviews: handler.NewReviewHandler(
			service.NewReviewService(db, reviewRepo, profileRepo, logger), logger),
		profiles: handler.NewProfileHandler(
			service.NewProfileService(db, userRepo, profileRepo, logger), store, 1, logger),
		dashboard: handler.NewDashboardHandler(
			service.NewDashboardService(reviewRepo, profileRepo, offerRepo, logger), logger),
		audit: handler.NewAuditHandler(auditSvc, logger),
		maintenance: handler.NewMaintenanceHandler(
			service.NewOfferDetailNormalizer(db, detailRepo, logger), logger),
		auditSvc: auditSvc,
	}
}

// newRequest builds a request with an optional JSON body
func newRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	if body == nil {
		return httptest.NewRequest(method, target, nil)
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// as attaches user as the authenticated principal
func as(req *http.Request, user *domain.User) *http.Request {
	return req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsStaff:  user.IsStaff,
	}))
}

// withParams sets chi URL parameters given as key, value pairs
func withParams(req *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
