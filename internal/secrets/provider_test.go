package secrets_test

import (
	"context"
	"errors"
	"testing"

	"github.com/coderr/marketplace-api/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapGetter map[string]string

func (m mapGetter) GetSecret(_ context.Context, name string) (string, error) {
	if v, ok := m[name]; ok {
		return v, nil
	}
	return "", errors.New("secret not found")
}

func TestProvider_Environment(t *testing.T) {
	ctx := context.Background()
	p := secrets.NewProviderWithGetter(secrets.SourceEnvironment, nil, zap.NewNop())

	t.Setenv("MARKETPLACE_TEST_SECRET", "from-env")
	value, err := p.GetSecret(ctx, "MARKETPLACE_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)

	_, err = p.GetSecret(ctx, "MARKETPLACE_MISSING_SECRET")
	assert.Error(t, err)
	assert.False(t, p.IsVaultEnabled())
}

func TestProvider_Vault(t *testing.T) {
	ctx := context.Background()
	p := secrets.NewProviderWithGetter(secrets.SourceVault, mapGetter{"jwt-secret": "vaulted"}, zap.NewNop())

	t.Run("reads from vault", func(t *testing.T) {
		value, err := p.GetSecret(ctx, "jwt-secret")
		require.NoError(t, err)
		assert.Equal(t, "vaulted", value)
		assert.True(t, p.IsVaultEnabled())
	})

	t.Run("environment override wins", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "override")
		value, err := p.GetSecretOrEnv(ctx, "jwt-secret", "JWT_SECRET")
		require.NoError(t, err)
		assert.Equal(t, "override", value)
	})

	t.Run("falls back to vault without override", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		value, err := p.GetSecretOrEnv(ctx, "jwt-secret", "JWT_SECRET")
		require.NoError(t, err)
		assert.Equal(t, "vaulted", value)
	})

	t.Run("missing getter", func(t *testing.T) {
		empty := secrets.NewProviderWithGetter(secrets.SourceVault, nil, zap.NewNop())
		_, err := empty.GetSecret(ctx, "jwt-secret")
		assert.Error(t, err)
	})
}

func TestNewProvider_AutoSource(t *testing.T) {
	p, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:      secrets.SourceAuto,
		Environment: "development",
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, secrets.SourceEnvironment, p.Source())

	_, err = secrets.NewProvider(&secrets.ProviderConfig{
		Source:      secrets.SourceAuto,
		Environment: "production",
	}, zap.NewNop())
	assert.Error(t, err, "production without a vault name")
}
