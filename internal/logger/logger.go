package logger

import (
	"fmt"

	"github.com/coderr/marketplace-api/internal/config"
	"github.com/coderr/marketplace-api/internal/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates the application logger. JSON output is used in
// production or when logging.format is "json".
func NewLogger(cfg *config.LoggingConfig, appCfg *config.AppConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" || appCfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapCfg.InitialFields = map[string]interface{}{
		"app":         appCfg.Name,
		"environment": appCfg.Environment,
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// WithRequest adds request context to logger
func WithRequest(logger *zap.Logger, method, path, requestID string) *zap.Logger {
	return logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
}

// WithUser adds principal context to logger
func WithUser(logger *zap.Logger, userID uint, username string) *zap.Logger {
	return logger.With(
		zap.Uint("user_id", userID),
		zap.String("username", username),
	)
}

// WithProfile adds the marketplace role of the acting user. A nil profile
// is logged as "none", which is the case for staff and the API key principal.
func WithProfile(logger *zap.Logger, userID uint, profile *domain.Profile) *zap.Logger {
	profileType := "none"
	if profile != nil {
		profileType = string(profile.Type)
	}
	return logger.With(
		zap.Uint("user_id", userID),
		zap.String("profile_type", profileType),
	)
}
