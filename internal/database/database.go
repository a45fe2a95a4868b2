package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coderr/marketplace-api/internal/config"
	"github.com/coderr/marketplace-api/internal/domain"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// NewDatabase opens the PostgreSQL connection pool, retrying while the
// server comes up.
func NewDatabase(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err := open(cfg)
		if err == nil {
			log.Info("Database connected",
				zap.String("host", cfg.Host),
				zap.String("database", cfg.Name),
				zap.Int("attempt", attempt),
			)
			return db, nil
		}
		lastErr = err
		log.Warn("Database connection failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", connectBackoff),
			zap.Error(err),
		)
		time.Sleep(connectBackoff)
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, lastErr)
}

func open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.ConnectionString()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// HealthCheck pings the database with a short timeout
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// HealthCheckWithStats pings the database and returns pool statistics
func HealthCheckWithStats(db *gorm.DB) (sql.DBStats, error) {
	if err := HealthCheck(db); err != nil {
		return sql.DBStats{}, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return sql.DBStats{}, fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Stats(), nil
}

// AutoMigrate creates or updates the schema from the models. Production
// schemas are managed by the goose migrations in ./migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Profile{},
		&domain.Offer{},
		&domain.OfferDetail{},
		&domain.Order{},
		&domain.Review{},
		&domain.AuditLog{},
	)
}
