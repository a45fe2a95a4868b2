package handler

import (
	"net/http"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/repository"
	"github.com/coderr/marketplace-api/internal/service"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	reviewService *service.ReviewService
	logger        *zap.Logger
}

func NewReviewHandler(reviewService *service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger,
	}
}

// List godoc
// @Summary List reviews
// @Tags Reviews
// @Produce json
// @Param business_user_id query int false "Reviews of this business user"
// @Param reviewer_id query int false "Reviews written by this user"
// @Param ordering query string false "Sort order" Enums(updated_at, -updated_at, rating, -rating)
// @Success 200 {array} domain.ReviewDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /reviews [get]
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	params := service.ReviewListParams{
		Filters: repository.ReviewFilters{
			BusinessUserID: q.uint("business_user_id"),
			ReviewerID:     q.uint("reviewer_id"),
		},
		Ordering: q.string("ordering"),
	}
	if !q.valid() {
		respondFieldErrors(w, q.errs)
		return
	}

	reviews, err := h.reviewService.List(r.Context(), params)
	if err != nil {
		handleServiceError(w, h.logger, err, "list reviews")
		return
	}
	respondJSON(w, http.StatusOK, reviews)
}

// Create godoc
// @Summary Review a business user
// @Description Customers only, one review per business user
// @Tags Reviews
// @Accept json
// @Produce json
// @Param request body domain.CreateReviewRequest true "Review"
// @Success 201 {object} domain.ReviewDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /reviews [post]
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateReviewRequest
	if err := decodeBody(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	review, err := h.reviewService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create review")
		return
	}
	respondJSON(w, http.StatusCreated, review)
}

// GetByID godoc
// @Summary Get a review
// @Tags Reviews
// @Produce json
// @Param id path int true "Review ID"
// @Success 200 {object} domain.ReviewDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /reviews/{id} [get]
func (h *ReviewHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	review, err := h.reviewService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get review")
		return
	}
	respondJSON(w, http.StatusOK, review)
}

// Update godoc
// @Summary Patch a review
// @Description Author only. Only rating and description may be sent. PUT is rejected.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path int true "Review ID"
// @Param request body object true "{\"rating\": 5, \"description\": \"...\"}"
// @Success 200 {object} domain.ReviewDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /reviews/{id} [patch]
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	payload, err := decodePayload(r)
	if err != nil {
		respondDecodeError(w, err)
		return
	}

	review, err := h.reviewService.Update(r.Context(), id, payload, r.Method)
	if err != nil {
		handleServiceError(w, h.logger, err, "update review")
		return
	}
	respondJSON(w, http.StatusOK, review)
}

// Delete godoc
// @Summary Delete a review
// @Description Author only
// @Tags Reviews
// @Param id path int true "Review ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	if err := h.reviewService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete review")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
