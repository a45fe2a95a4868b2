package router

import (
	"encoding/json"
	"net/http"

	"github.com/coderr/marketplace-api/internal/auth"
	"github.com/coderr/marketplace-api/internal/config"
	"github.com/coderr/marketplace-api/internal/database"
	"github.com/coderr/marketplace-api/internal/http/handler"
	"github.com/coderr/marketplace-api/internal/http/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/coderr/marketplace-api/docs" // Import generated swagger docs
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Auth        *handler.AuthHandler
	Profile     *handler.ProfileHandler
	Offer       *handler.OfferHandler
	Order       *handler.OrderHandler
	Review      *handler.ReviewHandler
	Dashboard   *handler.DashboardHandler
	Audit       *handler.AuditHandler
	Maintenance *handler.MaintenanceHandler
}

type Router struct {
	cfg             *config.Config
	logger          *zap.Logger
	db              *gorm.DB
	authMiddleware  *auth.Middleware
	rateLimiter     *middleware.RateLimiter
	auditMiddleware *middleware.AuditMiddleware
	handlers        Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	auditMiddleware *middleware.AuditMiddleware,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:             cfg,
		logger:          logger,
		db:              db,
		authMiddleware:  authMiddleware,
		rateLimiter:     rateLimiter,
		auditMiddleware: auditMiddleware,
		handlers:        handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(chimw.StripSlashes)
	r.Use(rt.rateLimiter.LimitByIP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	h := rt.handlers
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.With(rt.auditMiddleware.Audit).Post("/registration", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Get("/base-info", h.Dashboard.BaseInfo)
		r.With(rt.authMiddleware.OptionalAuthenticate).Get("/offers", h.Offer.List)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.Limit)
			r.Use(rt.auditMiddleware.Audit)

			r.Route("/profile/{id}", func(r chi.Router) {
				r.Get("/", h.Profile.GetByUserID)
				r.Patch("/", h.Profile.Update)
				r.Put("/file", h.Profile.UploadFile)
			})
			r.Get("/profiles/business", h.Profile.ListBusiness)
			r.Get("/profiles/customer", h.Profile.ListCustomer)

			r.Post("/offers", h.Offer.Create)
			r.Route("/offers/{id}", func(r chi.Router) {
				r.Get("/", h.Offer.GetByID)
				r.Patch("/", h.Offer.Update)
				r.Delete("/", h.Offer.Delete)
				r.Put("/image", h.Offer.UploadImage)
			})
			r.Get("/offerdetails/{id}", h.Offer.GetDetail)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Order.List)
				r.Post("/", h.Order.Create)
				r.Get("/{id}", h.Order.GetByID)
				r.Patch("/{id}", h.Order.UpdateStatus)
				r.Put("/{id}", h.Order.UpdateStatus)
				r.Delete("/{id}", h.Order.Delete)
			})
			r.Get("/order-count/{business_user_id}", h.Order.OrderCount)
			r.Get("/completed-order-count/{business_user_id}", h.Order.CompletedOrderCount)

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", h.Review.List)
				r.Post("/", h.Review.Create)
				r.Get("/{id}", h.Review.GetByID)
				r.Patch("/{id}", h.Review.Update)
				r.Put("/{id}", h.Review.Update)
				r.Delete("/{id}", h.Review.Delete)
			})

			// Staff only
			r.Route("/admin", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireStaff)
				r.Post("/offerdetails/normalize", h.Maintenance.NormalizeOfferDetails)
				r.Patch("/profile/{id}/type", h.Profile.UpdateType)
				r.Get("/audit-logs", h.Audit.List)
			})
		})
	})

	return r
}

// databaseHealth is the readiness probe with connection pool stats
func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	stats, err := database.HealthCheckWithStats(rt.db)
	if err != nil {
		rt.logger.Error("database health check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		},
	})
}

// readiness checks every dependency the API needs to serve requests
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	allHealthy := true

	if err := database.HealthCheck(rt.db); err != nil {
		rt.logger.Error("database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
		allHealthy = false
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	status, code := "healthy", http.StatusOK
	if !allHealthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
