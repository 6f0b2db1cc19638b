package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pos_tracker_backend/internal/services"
	"pos_tracker_backend/pkg/utils"
)

// ReportHandler serves read-only dashboard figures.
type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// GetDashboardSummary returns customer, order and stock totals.
func (h *ReportHandler) GetDashboardSummary(c *gin.Context) {
	summary, err := h.reportService.GetDashboardSummary(c.Request.Context())
	if err != nil {
		utils.LogError(err, "GetDashboardSummary: Error from reportService.GetDashboardSummary")
		respondInternal(c, "Failed to build dashboard summary.")
		return
	}
	c.JSON(http.StatusOK, summary)
}
