package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pos_tracker_backend/internal/models"
	"pos_tracker_backend/internal/services"
	"pos_tracker_backend/pkg/utils"
)

// InventoryHandler serves items, brands and stock lookups.
type InventoryHandler struct {
	inventoryService services.InventoryService
}

func NewInventoryHandler(is services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: is}
}

func respondInventoryError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrItemNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Inventory item not found.", err.Error()))
	case errors.Is(err, services.ErrBrandNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Brand not found.", err.Error()))
	case errors.Is(err, services.ErrItemExists), errors.Is(err, services.ErrSKUExists), errors.Is(err, services.ErrBrandExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Item or brand already exists.", err.Error()))
	case errors.Is(err, services.ErrBrandInUse):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Brand is still used by inventory items.", err.Error()))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, stockMessage(err), err.Error()))
	case errors.Is(err, services.ErrInvalidAdjustmentType), errors.Is(err, services.ErrZeroAdjustmentQuantity):
		utils.RespondValidationFailed(c, err.Error())
	case respondValidation(c, err):
	default:
		respondInternal(c, fallback)
	}
}

func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req services.CreateItemRequest
	if !bindJSON(c, &req, "CreateItem") {
		return
	}
	req.UserID = currentUserID(c)

	item, err := h.inventoryService.CreateItem(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "CreateItem: Error from inventoryService.CreateItem")
		respondInventoryError(c, err, "Failed to create inventory item.")
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *InventoryHandler) GetItems(c *gin.Context) {
	page, pageSize := pagination(c)
	filters := models.InventoryItemFilters{Search: c.Query("search"), Page: page, PageSize: pageSize}
	if raw := c.Query("brand_id"); raw != "" {
		id, err := utils.StrToInt64(raw)
		if err != nil {
			utils.RespondValidationFailed(c, "brand_id must be numeric")
			return
		}
		filters.BrandID = &id
	}

	items, totalCount, err := h.inventoryService.GetItems(c.Request.Context(), filters)
	if err != nil {
		utils.LogError(err, "GetItems: Error from inventoryService.GetItems")
		respondInternal(c, "Failed to fetch inventory items.")
		return
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      items,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

func (h *InventoryHandler) GetItemByID(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id", "item")
	if !ok {
		return
	}
	item, err := h.inventoryService.GetItemByID(c.Request.Context(), itemID)
	if err != nil {
		utils.LogError(err, "GetItemByID: Error from inventoryService.GetItemByID for ID "+c.Param("id"))
		respondInventoryError(c, err, "Failed to fetch inventory item.")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id", "item")
	if !ok {
		return
	}
	var req services.UpdateItemRequest
	if !bindJSON(c, &req, "UpdateItem") {
		return
	}

	item, err := h.inventoryService.UpdateItem(c.Request.Context(), itemID, req)
	if err != nil {
		utils.LogError(err, "UpdateItem: Error from inventoryService.UpdateItem for ID "+c.Param("id"))
		respondInventoryError(c, err, "Failed to update inventory item.")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id", "item")
	if !ok {
		return
	}
	if err := h.inventoryService.DeleteItem(c.Request.Context(), itemID); err != nil {
		utils.LogError(err, "DeleteItem: Error from inventoryService.DeleteItem for ID "+c.Param("id"))
		respondInventoryError(c, err, "Failed to delete inventory item.")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetLowStock lists active items at or below their reorder level, or below ?threshold= when given.
func (h *InventoryHandler) GetLowStock(c *gin.Context) {
	var threshold *int
	if raw := c.Query("threshold"); raw != "" {
		n := utils.StrToPositiveInt(raw, -1)
		if n < 0 {
			utils.RespondValidationFailed(c, "threshold must be a positive number")
			return
		}
		threshold = &n
	}

	report, err := h.inventoryService.GetLowStock(c.Request.Context(), threshold)
	if err != nil {
		utils.LogError(err, "GetLowStock: Error from inventoryService.GetLowStock")
		respondInternal(c, "Failed to fetch low stock items.")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *InventoryHandler) GetItemSummaries(c *gin.Context) {
	summaries, err := h.inventoryService.GetItemSummaries(c.Request.Context())
	if err != nil {
		utils.LogError(err, "GetItemSummaries: Error from inventoryService.GetItemSummaries")
		respondInternal(c, "Failed to fetch inventory summary.")
		return
	}
	if summaries == nil {
		summaries = []models.ItemSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"items": summaries})
}

func (h *InventoryHandler) GetBrandsForItem(c *gin.Context) {
	itemName := strings.TrimSpace(c.Query("item"))
	if itemName == "" {
		utils.RespondValidationFailed(c, "item query parameter is required")
		return
	}
	brands, err := h.inventoryService.GetBrandsForItem(c.Request.Context(), itemName)
	if err != nil {
		utils.LogError(err, "GetBrandsForItem: Error from inventoryService.GetBrandsForItem")
		respondInternal(c, "Failed to fetch brands for item.")
		return
	}
	if brands == nil {
		brands = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

// GetStock answers the summed quantity for ?item=&brand=.
func (h *InventoryHandler) GetStock(c *gin.Context) {
	itemName := strings.TrimSpace(c.Query("item"))
	brandName := strings.TrimSpace(c.Query("brand"))
	if itemName == "" || brandName == "" {
		utils.RespondValidationFailed(c, "item and brand query parameters are required")
		return
	}
	quantity, err := h.inventoryService.AvailableStock(c.Request.Context(), itemName, brandName)
	if err != nil {
		utils.LogError(err, "GetStock: Error from inventoryService.AvailableStock")
		respondInternal(c, "Failed to fetch stock.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": itemName, "brand": brandName, "quantity": quantity})
}

type adjustStockRequest struct {
	ItemName  string `json:"item_name" binding:"required"`
	BrandName string `json:"brand" binding:"required"`
	Delta     int    `json:"delta"`
}

// AdjustStock applies a signed delta to the first item matching name and brand.
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req adjustStockRequest
	if !bindJSON(c, &req, "AdjustStock") {
		return
	}
	if req.Delta == 0 {
		utils.RespondValidationFailed(c, services.ErrZeroAdjustmentQuantity.Error())
		return
	}

	result, err := h.inventoryService.AdjustStock(c.Request.Context(), req.ItemName, req.BrandName, req.Delta, currentUserID(c))
	if err != nil {
		utils.LogError(err, "AdjustStock: Error from inventoryService.AdjustStock")
		respondInventoryError(c, err, "Failed to adjust stock.")
		return
	}
	if !result.Adjusted {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "No inventory item matches that name and brand.", req.ItemName+" ("+req.BrandName+")"))
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *InventoryHandler) CreateBrand(c *gin.Context) {
	var req services.CreateBrandRequest
	if !bindJSON(c, &req, "CreateBrand") {
		return
	}
	brand, err := h.inventoryService.CreateBrand(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "CreateBrand: Error from inventoryService.CreateBrand")
		respondInventoryError(c, err, "Failed to create brand.")
		return
	}
	c.JSON(http.StatusCreated, brand)
}

// GetBrands lists brands; ?all=true includes inactive ones.
func (h *InventoryHandler) GetBrands(c *gin.Context) {
	activeOnly := c.Query("all") != "true"
	brands, err := h.inventoryService.GetBrands(c.Request.Context(), activeOnly)
	if err != nil {
		utils.LogError(err, "GetBrands: Error from inventoryService.GetBrands")
		respondInternal(c, "Failed to fetch brands.")
		return
	}
	if brands == nil {
		brands = []models.Brand{}
	}
	c.JSON(http.StatusOK, gin.H{"data": brands})
}

func (h *InventoryHandler) DeleteBrand(c *gin.Context) {
	brandID, ok := parseIDParam(c, "id", "brand")
	if !ok {
		return
	}
	if err := h.inventoryService.DeleteBrand(c.Request.Context(), brandID); err != nil {
		utils.LogError(err, "DeleteBrand: Error from inventoryService.DeleteBrand for ID "+c.Param("id"))
		respondInventoryError(c, err, "Failed to delete brand.")
		return
	}
	c.Status(http.StatusNoContent)
}
