package handler

import (
	"net/http"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/service"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orderService *service.OrderService
	logger       *zap.Logger
}

func NewOrderHandler(orderService *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// List godoc
// @Summary List own orders
// @Description Orders where the caller is the customer or the business, newest first
// @Tags Orders
// @Produce json
// @Success 200 {array} domain.OrderDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /orders [get]
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list orders")
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// Create godoc
// @Summary Order an offer detail
// @Description Customers only. The detail's terms are copied into the order.
// @Tags Orders
// @Accept json
// @Produce json
// @Param request body domain.CreateOrderRequest true "Offer detail to order"
// @Success 201 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /orders [post]
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if err := decodeBody(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	order, err := h.orderService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create order")
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

// GetByID godoc
// @Summary Get an order
// @Tags Orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} domain.OrderDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /orders/{id} [get]
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	order, err := h.orderService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get order")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// UpdateStatus godoc
// @Summary Change an order's status
// @Description Business user of the order only. The body may only contain status. PUT is rejected.
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param request body object true "{\"status\": \"completed\"}"
// @Success 200 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /orders/{id} [patch]
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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

	order, err := h.orderService.UpdateStatus(r.Context(), id, payload, r.Method)
	if err != nil {
		handleServiceError(w, h.logger, err, "update order status")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// Delete godoc
// @Summary Delete an order
// @Description Staff only
// @Tags Orders
// @Param id path int true "Order ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id} [delete]
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	if err := h.orderService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete order")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OrderCount godoc
// @Summary Count in-progress orders of a business user
// @Tags Orders
// @Produce json
// @Param business_user_id path int true "Business user ID"
// @Success 200 {object} domain.OrderCountDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /order-count/{business_user_id} [get]
func (h *OrderHandler) OrderCount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "business_user_id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "No business user found with this id.")
		return
	}
	count, err := h.orderService.InProgressCount(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "count orders")
		return
	}
	respondJSON(w, http.StatusOK, count)
}

// CompletedOrderCount godoc
// @Summary Count completed orders of a business user
// @Tags Orders
// @Produce json
// @Param business_user_id path int true "Business user ID"
// @Success 200 {object} domain.CompletedOrderCountDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /completed-order-count/{business_user_id} [get]
func (h *OrderHandler) CompletedOrderCount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "business_user_id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "No business user found with this id.")
		return
	}
	count, err := h.orderService.CompletedCount(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "count completed orders")
		return
	}
	respondJSON(w, http.StatusOK, count)
}
