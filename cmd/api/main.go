package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coderr/marketplace-api/docs"
	"github.com/coderr/marketplace-api/internal/auth"
	"github.com/coderr/marketplace-api/internal/config"
	"github.com/coderr/marketplace-api/internal/database"
	"github.com/coderr/marketplace-api/internal/http/handler"
	"github.com/coderr/marketplace-api/internal/http/middleware"
	"github.com/coderr/marketplace-api/internal/http/router"
	"github.com/coderr/marketplace-api/internal/jobs"
	"github.com/coderr/marketplace-api/internal/logger"
	"github.com/coderr/marketplace-api/internal/repository"
	"github.com/coderr/marketplace-api/internal/service"
	"github.com/coderr/marketplace-api/internal/storage"
	"go.uber.org/zap"
)

// @title Coderr Marketplace API
// @version 1.0
// @description Freelance marketplace API for offers, orders and reviews
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@coderr.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Basic configuration first, for logging setup
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if host := os.Getenv("SWAGGER_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	} else {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Secrets come from Azure Key Vault in staging and production
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
		log.Info("Database schema auto-migrated")
	}

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	detailRepo := repository.NewOfferDetailRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	// Services
	tokens := auth.NewTokenManager(&cfg.Auth)
	authService := service.NewAuthService(db, userRepo, profileRepo, tokens, cfg.Auth.BcryptCost, log)
	profileService := service.NewProfileService(db, userRepo, profileRepo, log)
	offerService := service.NewOfferService(db, offerRepo, detailRepo, profileRepo, log)
	orderService := service.NewOrderService(db, orderRepo, detailRepo, profileRepo, log)
	reviewService := service.NewReviewService(db, reviewRepo, profileRepo, log)
	dashboardService := service.NewDashboardService(reviewRepo, profileRepo, offerRepo, log)
	auditLogService := service.NewAuditLogService(auditLogRepo, log)
	normalizer := service.NewOfferDetailNormalizer(db, detailRepo, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, tokens, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	auditMiddleware := middleware.NewAuditMiddleware(auditLogService, nil, log)

	maxUpload := cfg.Storage.MaxUploadSizeMB
	rt := router.NewRouter(cfg, log, db, authMiddleware, rateLimiter, auditMiddleware, router.Handlers{
		Auth:        handler.NewAuthHandler(authService, log),
		Profile:     handler.NewProfileHandler(profileService, fileStorage, maxUpload, log),
		Offer:       handler.NewOfferHandler(offerService, fileStorage, maxUpload, log),
		Order:       handler.NewOrderHandler(orderService, log),
		Review:      handler.NewReviewHandler(reviewService, log),
		Dashboard:   handler.NewDashboardHandler(dashboardService, log),
		Audit:       handler.NewAuditHandler(auditLogService, log),
		Maintenance: handler.NewMaintenanceHandler(normalizer, log),
	})

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Normalizer.Enabled {
		scheduler = jobs.NewScheduler(log)
		if err := jobs.RegisterNormalizerJob(
			scheduler,
			normalizer,
			log,
			cfg.Jobs.Normalizer.Cron,
			cfg.Jobs.Normalizer.TimeoutDuration(),
		); err != nil {
			log.Error("Failed to register normalizer job", zap.Error(err))
		} else {
			scheduler.Start()
		}
	} else {
		log.Info("Offer detail normalizer job disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}
		log.Info("Server stopped gracefully")
	}

	return nil
}
