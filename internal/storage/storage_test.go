package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/coderr/marketplace-api/internal/config"
	"github.com/coderr/marketplace-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		wantSuffix  string
		wantErr     bool
	}{
		{name: "png", filename: "logo.png", contentType: "image/png", wantSuffix: ".png"},
		{name: "jpeg keeps original extension", filename: "photo.JPEG", contentType: "image/jpeg", wantSuffix: ".jpeg"},
		{name: "content type wins over filename", filename: "evil.exe", contentType: "image/webp", wantSuffix: ".webp"},
		{name: "parameters are ignored", filename: "a.gif", contentType: "image/gif; charset=binary", wantSuffix: ".gif"},
		{name: "pdf rejected", filename: "doc.pdf", contentType: "application/pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := storage.ObjectKey(storage.FolderOffers, tt.filename, tt.contentType)
			if tt.wantErr {
				assert.ErrorIs(t, err, storage.ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(key, "offers/"))
			assert.True(t, strings.HasSuffix(key, tt.wantSuffix))
		})
	}
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	store, err := storage.NewStorage(&config.StorageConfig{Mode: "local", LocalBasePath: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	key, size, err := store.Upload(ctx, storage.FolderProfiles, "me.png", "image/png", strings.NewReader("pixels"))
	require.NoError(t, err)
	assert.Equal(t, int64(6), size)
	assert.True(t, strings.HasPrefix(key, "profiles/"))

	reader, err := store.Download(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, reader.Close())
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Download(ctx, key)
	assert.Error(t, err)
}

func TestNewStorage_UnknownMode(t *testing.T) {
	_, err := storage.NewStorage(&config.StorageConfig{Mode: "ftp"}, zap.NewNop())
	assert.Error(t, err)

	_, err = storage.NewStorage(&config.StorageConfig{Mode: "azure"}, zap.NewNop())
	assert.Error(t, err)
}
