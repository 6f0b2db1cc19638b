package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pos_tracker_backend/internal/models"
	"pos_tracker_backend/internal/services"
	"pos_tracker_backend/pkg/utils"
)

// CreateAdjustment records a ledgered stock change against one item.
func (h *InventoryHandler) CreateAdjustment(c *gin.Context) {
	var req services.RecordAdjustmentRequest
	if !bindJSON(c, &req, "CreateAdjustment") {
		return
	}
	req.UserID = currentUserID(c)

	adjustment, err := h.inventoryService.RecordAdjustment(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "CreateAdjustment: Error from inventoryService.RecordAdjustment")
		respondInventoryError(c, err, "Failed to record inventory adjustment.")
		return
	}
	c.JSON(http.StatusCreated, adjustment)
}

// GetAdjustments lists recent ledger entries, newest first.
func (h *InventoryHandler) GetAdjustments(c *gin.Context) {
	page, pageSize := pagination(c)

	var itemID *int64
	if raw := c.Query("item_id"); raw != "" {
		id, err := utils.StrToInt64(raw)
		if err != nil {
			utils.RespondValidationFailed(c, "item_id must be numeric")
			return
		}
		itemID = &id
	}
	var adjustmentType *string
	if raw := c.Query("adjustment_type"); raw != "" {
		if !models.AdjustmentType(raw).IsValid() {
			utils.RespondValidationFailed(c, "unknown adjustment_type '"+raw+"'")
			return
		}
		adjustmentType = &raw
	}

	adjustments, totalCount, err := h.inventoryService.GetAdjustments(c.Request.Context(), itemID, adjustmentType, page, pageSize)
	if err != nil {
		utils.LogError(err, "GetAdjustments: Error from inventoryService.GetAdjustments")
		respondInternal(c, "Failed to fetch inventory adjustments.")
		return
	}
	if adjustments == nil {
		adjustments = []models.InventoryAdjustment{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      adjustments,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}
