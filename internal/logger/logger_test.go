package logger_test

import (
	"testing"

	"github.com/coderr/marketplace-api/internal/config"
	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	t.Run("level from config", func(t *testing.T) {
		log, err := logger.NewLogger(&config.LoggingConfig{Level: "warn", Format: "json"}, &config.AppConfig{Name: "marketplace", Environment: "test"})
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		log, err := logger.NewLogger(&config.LoggingConfig{Level: "chatty"}, &config.AppConfig{Environment: "development"})
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	})
}

func TestWithProfile(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	logger.WithProfile(base, 7, &domain.Profile{UserID: 7, Type: domain.ProfileTypeBusiness}).Info("offer created")
	logger.WithProfile(base, 1, nil).Info("order deleted")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "business", entries[0].ContextMap()["profile_type"])
	assert.Equal(t, uint64(7), entries[0].ContextMap()["user_id"])
	assert.Equal(t, "none", entries[1].ContextMap()["profile_type"])
}

func TestWithRequestAndUser(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	log := logger.WithUser(logger.WithRequest(base, "PATCH", "/api/v1/orders/3", "req-1"), 4, "studio")
	log.Info("status changed")

	fields := logs.AllUntimed()[0].ContextMap()
	assert.Equal(t, "PATCH", fields["method"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "studio", fields["username"])
}
