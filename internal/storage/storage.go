package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/coderr/marketplace-api/internal/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Folders used as key prefixes
const (
	FolderOffers   = "offers"
	FolderProfiles = "profiles"
)

// ErrUnsupportedType is returned for uploads that are not images
var ErrUnsupportedType = errors.New("unsupported content type")

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Storage stores uploaded offer images and profile avatars. Keys are
// slash separated and start with the folder they were uploaded to.
type Storage interface {
	Upload(ctx context.Context, folder, filename, contentType string, data io.Reader) (string, int64, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewStorage creates a storage backend from configuration.
// "local" writes to the filesystem, "azure" to Azure Blob Storage.
func NewStorage(cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Mode {
	case "local":
		return NewLocalStorage(cfg.LocalBasePath)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobStorage(cfg.CloudConnectionString, cfg.CloudContainer, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// ObjectKey builds a unique key under folder. The extension is taken from
// the content type; the original filename only serves as a fallback.
func ObjectKey(folder, filename, contentType string) (string, error) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := imageTypes[mediaType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if orig := strings.ToLower(filepath.Ext(filename)); orig == ".jpeg" && ext == ".jpg" {
		ext = orig
	}
	return path.Join(folder, uuid.New().String()+ext), nil
}

// LocalStorage implements Storage on the local filesystem
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, folder, filename, contentType string, data io.Reader) (string, int64, error) {
	key, err := ObjectKey(folder, filename, contentType)
	if err != nil {
		return "", 0, err
	}
	fullPath := s.fullPath(key)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, data)
	if err != nil {
		os.Remove(fullPath)
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}
	return key, size, nil
}

func (s *LocalStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(s.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes the file. Missing files are not an error.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.fullPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// fullPath maps a key to a path below basePath, discarding any attempt to
// climb out of it
func (s *LocalStorage) fullPath(key string) string {
	clean := path.Clean("/" + key)
	return filepath.Join(s.basePath, filepath.FromSlash(clean))
}
