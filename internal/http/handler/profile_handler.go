package handler

import (
	"net/http"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/service"
	"github.com/coderr/marketplace-api/internal/storage"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	profileService *service.ProfileService
	uploads        *uploader
	logger         *zap.Logger
}

func NewProfileHandler(profileService *service.ProfileService, store storage.Storage, maxUploadMB int64, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		uploads:        newUploader(store, maxUploadMB, logger),
		logger:         logger,
	}
}

// GetByUserID godoc
// @Summary Get a profile
// @Tags Profiles
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} domain.ProfileDTO
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /profile/{id} [get]
func (h *ProfileHandler) GetByUserID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	profile, err := h.profileService.GetByUserID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get profile")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// Update godoc
// @Summary Update own profile
// @Description Partial update. The profile type is read-only.
// @Tags Profiles
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body domain.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} domain.ProfileDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /profile/{id} [patch]
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	var req domain.UpdateProfileRequest
	if err := decodeBody(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	profile, err := h.profileService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update profile")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// UploadFile godoc
// @Summary Upload a profile picture
// @Tags Profiles
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "User ID"
// @Param file formData file true "Image"
// @Success 200 {object} domain.ProfileDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /profile/{id}/file [put]
func (h *ProfileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	if err := h.profileService.AuthorizeOwner(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "authorize profile upload")
		return
	}

	key, ok := h.uploads.save(w, r, "file", storage.FolderProfiles)
	if !ok {
		return
	}
	profile, err := h.profileService.SetFile(r.Context(), id, key)
	if err != nil {
		h.uploads.discard(r, key)
		handleServiceError(w, h.logger, err, "set profile file")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// ListBusiness godoc
// @Summary List business profiles
// @Tags Profiles
// @Produce json
// @Success 200 {array} domain.ProfileDTO
// @Security BearerAuth
// @Router /profiles/business [get]
func (h *ProfileHandler) ListBusiness(w http.ResponseWriter, r *http.Request) {
	h.listByType(w, r, domain.ProfileTypeBusiness)
}

// ListCustomer godoc
// @Summary List customer profiles
// @Tags Profiles
// @Produce json
// @Success 200 {array} domain.ProfileDTO
// @Security BearerAuth
// @Router /profiles/customer [get]
func (h *ProfileHandler) ListCustomer(w http.ResponseWriter, r *http.Request) {
	h.listByType(w, r, domain.ProfileTypeCustomer)
}

func (h *ProfileHandler) listByType(w http.ResponseWriter, r *http.Request, profileType domain.ProfileType) {
	profiles, err := h.profileService.ListByType(r.Context(), profileType)
	if err != nil {
		handleServiceError(w, h.logger, err, "list profiles")
		return
	}
	respondJSON(w, http.StatusOK, profiles)
}

// UpdateType godoc
// @Summary Change a profile's role
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body domain.UpdateProfileTypeRequest true "New type"
// @Success 200 {object} domain.ProfileDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/profile/{id}/type [patch]
func (h *ProfileHandler) UpdateType(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	var req domain.UpdateProfileTypeRequest
	if err := decodeBody(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	profile, err := h.profileService.UpdateType(r.Context(), id, req.Type)
	if err != nil {
		handleServiceError(w, h.logger, err, "update profile type")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}
