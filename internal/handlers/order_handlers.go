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

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

func respondOrderError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", err.Error()))
	case errors.Is(err, services.ErrCustomerNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Customer not found.", err.Error()))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, stockMessage(err), err.Error()))
	case errors.Is(err, services.ErrInvalidTransition):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Status change not allowed.", err.Error()))
	case errors.Is(err, services.ErrInvalidOrderStatus):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order status provided.", err.Error()))
	case respondValidation(c, err):
	default:
		respondInternal(c, fallback)
	}
}

// stockMessage strips the sentinel prefix so clients get "Only N in stock for ...".
func stockMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, services.ErrInsufficientStock.Error()+": "); i >= 0 {
		return msg[i+len(services.ErrInsufficientStock.Error())+2:]
	}
	return "Insufficient stock."
}

// CreateOrder creates an order for the customer in the path.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id", "customer")
	if !ok {
		return
	}
	var req services.CreateOrderRequest
	if !bindJSON(c, &req, "CreateOrder") {
		return
	}

	result, err := h.orderService.CreateOrder(c.Request.Context(), customerID, req, currentUserID(c))
	if err != nil {
		utils.LogError(err, "CreateOrder: Error from orderService.CreateOrder")
		respondOrderError(c, err, "Failed to create order.")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetOrders handles fetching orders with filters.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	page, pageSize := pagination(c)
	filters := models.OrderFilters{Page: page, PageSize: pageSize}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := utils.StrToInt64(raw)
		if err != nil {
			utils.RespondValidationFailed(c, "customer_id must be numeric")
			return
		}
		filters.CustomerID = &id
	}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}
	if orderType := c.Query("type"); orderType != "" {
		filters.Type = &orderType
	}

	orders, totalCount, err := h.orderService.GetOrders(c.Request.Context(), filters)
	if err != nil {
		utils.LogError(err, "GetOrders: Error from orderService.GetOrders")
		respondOrderError(c, err, "Failed to fetch orders.")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      orders,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetRecentOrders lists the latest orders that are still open.
func (h *OrderHandler) GetRecentOrders(c *gin.Context) {
	limit := utils.StrToPositiveInt(c.Query("limit"), 10)
	orders, err := h.orderService.GetRecentOrders(c.Request.Context(), limit)
	if err != nil {
		utils.LogError(err, "GetRecentOrders: Error from orderService.GetRecentOrders")
		respondInternal(c, "Failed to fetch recent orders.")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}

// GetOrderByID handles fetching a single order.
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		utils.LogError(err, "GetOrderByID: Error from orderService.GetOrderByID for ID "+c.Param("id"))
		respondOrderError(c, err, "Failed to fetch order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrder edits the descriptive fields of an order.
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}
	var req services.UpdateOrderRequest
	if !bindJSON(c, &req, "UpdateOrder") {
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), orderID, req)
	if err != nil {
		utils.LogError(err, "UpdateOrder: Error from orderService.UpdateOrder for ID "+c.Param("id"))
		respondOrderError(c, err, "Failed to update order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus moves an order along its lifecycle.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}
	var req services.UpdateOrderStatusRequest
	if !bindJSON(c, &req, "UpdateOrderStatus") {
		return
	}

	result, err := h.orderService.UpdateOrderStatus(c.Request.Context(), orderID, req.Status, currentUserID(c))
	if err != nil {
		utils.LogError(err, "UpdateOrderStatus: Error from orderService.UpdateOrderStatus for ID "+c.Param("id"))
		respondOrderError(c, err, "Failed to update order status.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteOrder handles deleting an order. Stock is not restored.
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}

	if err := h.orderService.DeleteOrder(c.Request.Context(), orderID); err != nil {
		utils.LogError(err, "DeleteOrder: Error from orderService.DeleteOrder for ID "+c.Param("id"))
		respondOrderError(c, err, "Failed to delete order.")
		return
	}
	c.Status(http.StatusNoContent)
}
