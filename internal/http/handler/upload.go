package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/coderr/marketplace-api/internal/storage"
	"go.uber.org/zap"
)

// uploader stores multipart images through the storage backend
type uploader struct {
	store       storage.Storage
	maxUploadMB int64
	logger      *zap.Logger
}

func newUploader(store storage.Storage, maxUploadMB int64, logger *zap.Logger) *uploader {
	if maxUploadMB <= 0 {
		maxUploadMB = 5
	}
	return &uploader{store: store, maxUploadMB: maxUploadMB, logger: logger}
}

// save reads the form field and uploads it under folder. On failure the
// response has been written and ok is false.
func (u *uploader) save(w http.ResponseWriter, r *http.Request, field, folder string) (string, bool) {
	limit := u.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", u.maxUploadMB))
			return "", false
		}
		respondFieldErrors(w, map[string]string{field: "The submitted data was not a file."})
		return "", false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		respondFieldErrors(w, map[string]string{field: "No file was submitted."})
		return "", false
	}
	defer file.Close()

	key, _, err := u.store.Upload(r.Context(), folder, header.Filename, contentType(header), file)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			respondFieldErrors(w, map[string]string{field: "Upload a valid image."})
			return "", false
		}
		u.logger.Error("failed to store upload", zap.Error(err), zap.String("folder", folder))
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return "", false
	}
	return key, true
}

// discard removes an uploaded object that could not be attached
func (u *uploader) discard(r *http.Request, key string) {
	if err := u.store.Delete(r.Context(), key); err != nil {
		u.logger.Warn("failed to remove orphaned upload", zap.String("key", key), zap.Error(err))
	}
}

func contentType(header *multipart.FileHeader) string {
	ct := header.Header.Get("Content-Type")
	if ct == "" || strings.HasPrefix(ct, "application/octet-stream") {
		return "application/octet-stream"
	}
	return ct
}
