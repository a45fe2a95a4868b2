package handler

import (
	"net/http"

	"github.com/coderr/marketplace-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// BaseInfo godoc
// @Summary Platform statistics
// @Description Review count, average rating (one decimal, 0 without reviews), business profile count and offer count
// @Tags Reporting
// @Produce json
// @Success 200 {object} domain.BaseInfoDTO
// @Failure 500 {object} domain.APIError
// @Router /base-info [get]
func (h *DashboardHandler) BaseInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.dashboardService.BaseInfo(r.Context())
	if err != nil {
		h.logger.Error("failed to compute base info", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	respondJSON(w, http.StatusOK, info)
}
