package handler

import (
	"net/http"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/repository"
	"github.com/coderr/marketplace-api/internal/service"
	"github.com/coderr/marketplace-api/internal/storage"
	"go.uber.org/zap"
)

type OfferHandler struct {
	offerService *service.OfferService
	uploads      *uploader
	logger       *zap.Logger
}

func NewOfferHandler(offerService *service.OfferService, store storage.Storage, maxUploadMB int64, logger *zap.Logger) *OfferHandler {
	return &OfferHandler{
		offerService: offerService,
		uploads:      newUploader(store, maxUploadMB, logger),
		logger:       logger,
	}
}

// List godoc
// @Summary List offers
// @Description Paginated offers with minimum price and delivery time per offer
// @Tags Offers
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page (max 100)" default(10)
// @Param creator_id query int false "Only offers of this user"
// @Param min_price query number false "Minimum of the cheapest tier price"
// @Param max_delivery_time query int false "Maximum of the fastest tier delivery time"
// @Param search query string false "Search in title and description"
// @Param ordering query string false "Sort order" Enums(updated_at, -updated_at, min_price, -min_price)
// @Success 200 {object} domain.PaginatedResponse{results=[]domain.OfferSummaryDTO}
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /offers [get]
func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	params := service.OfferListParams{
		Filters: repository.OfferFilters{
			CreatorID:       q.uint("creator_id"),
			MinPrice:        q.float("min_price"),
			MaxDeliveryTime: q.int("max_delivery_time"),
			Search:          q.string("search"),
		},
		Ordering: q.string("ordering"),
	}
	params.Page, params.PageSize = q.pagination()
	if !q.valid() {
		respondFieldErrors(w, q.errs)
		return
	}

	offers, total, err := h.offerService.List(r.Context(), params)
	if err != nil {
		handleServiceError(w, h.logger, err, "list offers")
		return
	}
	if pageOutOfRange(total, params.Page, params.PageSize) {
		respondWithError(w, http.StatusNotFound, "Invalid page.")
		return
	}
	respondJSON(w, http.StatusOK, newPaginatedResponse(r, total, params.Page, params.PageSize, offers))
}

// Create godoc
// @Summary Create an offer
// @Description Business users only. Exactly one detail per tier: basic, standard, premium.
// @Tags Offers
// @Accept json
// @Produce json
// @Param request body domain.CreateOfferRequest true "Offer with three details"
// @Success 201 {object} domain.OfferDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /offers [post]
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOfferRequest
	if err := decodeBody(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	offer, err := h.offerService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create offer")
		return
	}
	respondJSON(w, http.StatusCreated, offer)
}

// GetByID godoc
// @Summary Get an offer
// @Tags Offers
// @Produce json
// @Param id path int true "Offer ID"
// @Success 200 {object} domain.OfferSummaryDTO
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /offers/{id} [get]
func (h *OfferHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	offer, err := h.offerService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get offer")
		return
	}
	respondJSON(w, http.StatusOK, offer)
}

// Update godoc
// @Summary Patch an offer
// @Description Owner only. Details are addressed by offer_type.
// @Tags Offers
// @Accept json
// @Produce json
// @Param id path int true "Offer ID"
// @Param request body domain.UpdateOfferRequest true "Fields to change"
// @Success 200 {object} domain.OfferDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /offers/{id} [patch]
func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	var req domain.UpdateOfferRequest
	if err := decodeBody(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	offer, err := h.offerService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update offer")
		return
	}
	respondJSON(w, http.StatusOK, offer)
}

// Delete godoc
// @Summary Delete an offer
// @Description Owner only. Existing orders are kept.
// @Tags Offers
// @Param id path int true "Offer ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /offers/{id} [delete]
func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	if err := h.offerService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete offer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage godoc
// @Summary Upload an offer image
// @Tags Offers
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Offer ID"
// @Param image formData file true "Image"
// @Success 200 {object} domain.OfferDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Router /offers/{id}/image [put]
func (h *OfferHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	if err := h.offerService.AuthorizeOwner(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "authorize offer upload")
		return
	}

	key, ok := h.uploads.save(w, r, "image", storage.FolderOffers)
	if !ok {
		return
	}
	offer, err := h.offerService.SetImage(r.Context(), id, key)
	if err != nil {
		h.uploads.discard(r, key)
		handleServiceError(w, h.logger, err, "set offer image")
		return
	}
	respondJSON(w, http.StatusOK, offer)
}

// GetDetail godoc
// @Summary Get an offer detail
// @Description Returns one tier in its canonical form
// @Tags Offers
// @Produce json
// @Param id path int true "Offer detail ID"
// @Success 200 {object} domain.OfferDetailDTO
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /offerdetails/{id} [get]
func (h *OfferHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	detail, err := h.offerService.GetDetail(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get offer detail")
		return
	}
	respondJSON(w, http.StatusOK, detail)
}
