package handler

import (
	"net/http"
	"strconv"

	"github.com/coderr/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// MaintenanceHandler exposes staff-only data maintenance operations
type MaintenanceHandler struct {
	normalizer *service.OfferDetailNormalizer
	logger     *zap.Logger
}

func NewMaintenanceHandler(normalizer *service.OfferDetailNormalizer, logger *zap.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		normalizer: normalizer,
		logger:     logger,
	}
}

// NormalizeOfferDetails godoc
// @Summary Normalize stored offer details
// @Description Writes canonical title, offer_type, delivery time, revisions and features onto every detail
// @Tags Admin
// @Produce json
// @Param dry_run query bool false "Only count the details that would change"
// @Success 200 {object} domain.NormalizationReport
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/offerdetails/normalize [post]
func (h *MaintenanceHandler) NormalizeOfferDetails(w http.ResponseWriter, r *http.Request) {
	dryRun := false
	if raw := r.URL.Query().Get("dry_run"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondFieldErrors(w, map[string]string{"dry_run": "Must be a valid boolean."})
			return
		}
		dryRun = v
	}

	report, err := h.normalizer.NormalizeAll(r.Context(), dryRun)
	if err != nil {
		handleServiceError(w, h.logger, err, "normalize offer details")
		return
	}
	respondJSON(w, http.StatusOK, report)
}
