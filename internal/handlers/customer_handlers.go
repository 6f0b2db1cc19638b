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

// CustomerHandler holds the customer service.
type CustomerHandler struct {
	customerService services.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(cs services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: cs}
}

// respondCustomerError maps customer service errors onto API errors.
func respondCustomerError(c *gin.Context, err error, fallback string) {
	var dup *services.DuplicateCustomerError
	switch {
	case respondValidation(c, err):
	case errors.As(err, &dup):
		apiErr := utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, dup.Error(), "")
		if dup.Existing != nil {
			apiErr.Details = customerURLPath(dup.Existing.ID)
		}
		utils.RespondWithError(c, apiErr)
	case errors.Is(err, services.ErrDuplicateCustomer):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Customer already exists.", err.Error()))
	case errors.Is(err, services.ErrCustomerNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Customer not found.", err.Error()))
	case errors.Is(err, services.ErrVehicleNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Vehicle not found.", err.Error()))
	default:
		respondInternal(c, fallback)
	}
}

func customerURLPath(id int64) string {
	return "/api/v1/customers/" + utils.Int64ToStr(id)
}

// CreateCustomer handles the creation of a new customer.
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req services.CreateCustomerRequest
	if !bindJSON(c, &req, "CreateCustomer") {
		return
	}

	customer, err := h.customerService.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "CreateCustomer: Error from customerService.CreateCustomer")
		respondCustomerError(c, err, "Failed to create customer.")
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// QuickCreateCustomer creates a customer from name, phone and type only.
func (h *CustomerHandler) QuickCreateCustomer(c *gin.Context) {
	var req services.QuickCreateRequest
	if !bindJSON(c, &req, "QuickCreateCustomer") {
		return
	}

	customer, err := h.customerService.QuickCreate(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "QuickCreateCustomer: Error from customerService.QuickCreate")
		respondCustomerError(c, err, "Failed to create customer.")
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// CheckDuplicate reports whether a customer with the same name and phone exists.
func (h *CustomerHandler) CheckDuplicate(c *gin.Context) {
	fullName := strings.TrimSpace(c.Query("full_name"))
	phone := strings.TrimSpace(c.Query("phone"))
	if fullName == "" || phone == "" {
		utils.RespondValidationFailed(c, "full_name and phone query parameters are required")
		return
	}

	result, err := h.customerService.CheckDuplicate(c.Request.Context(), fullName, phone)
	if err != nil {
		utils.LogError(err, "CheckDuplicate: Error from customerService.CheckDuplicate")
		respondInternal(c, "Failed to check for duplicates.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetCustomers handles fetching customers with pagination and search.
func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	page, pageSize := pagination(c)
	filters := models.CustomerFilters{
		Search:       c.Query("search"),
		CustomerType: c.Query("customer_type"),
		Page:         page,
		PageSize:     pageSize,
	}

	customers, totalCount, err := h.customerService.GetCustomers(c.Request.Context(), filters)
	if err != nil {
		utils.LogError(err, "GetCustomers: Error from customerService.GetCustomers")
		respondCustomerError(c, err, "Failed to fetch customers.")
		return
	}
	if customers == nil {
		customers = []models.Customer{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      customers,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetCustomerByID handles fetching a single customer with their vehicles.
func (h *CustomerHandler) GetCustomerByID(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id", "customer")
	if !ok {
		return
	}

	customer, err := h.customerService.GetCustomerByID(c.Request.Context(), customerID)
	if err != nil {
		utils.LogError(err, "GetCustomerByID: Error from customerService.GetCustomerByID for ID "+c.Param("id"))
		respondCustomerError(c, err, "Failed to fetch customer.")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// UpdateCustomer handles updating a customer.
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id", "customer")
	if !ok {
		return
	}
	var req services.UpdateCustomerRequest
	if !bindJSON(c, &req, "UpdateCustomer") {
		return
	}

	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), customerID, req)
	if err != nil {
		utils.LogError(err, "UpdateCustomer: Error from customerService.UpdateCustomer for ID "+c.Param("id"))
		respondCustomerError(c, err, "Failed to update customer.")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer handles deleting a customer.
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id", "customer")
	if !ok {
		return
	}

	if err := h.customerService.DeleteCustomer(c.Request.Context(), customerID); err != nil {
		utils.LogError(err, "DeleteCustomer: Error from customerService.DeleteCustomer for ID "+c.Param("id"))
		respondCustomerError(c, err, "Failed to delete customer.")
		return
	}
	c.Status(http.StatusNoContent)
}

// AddVehicle registers a vehicle for a customer.
func (h *CustomerHandler) AddVehicle(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id", "customer")
	if !ok {
		return
	}
	var req services.VehicleRequest
	if !bindJSON(c, &req, "AddVehicle") {
		return
	}

	vehicle, err := h.customerService.AddVehicle(c.Request.Context(), customerID, req)
	if err != nil {
		utils.LogError(err, "AddVehicle: Error from customerService.AddVehicle")
		respondCustomerError(c, err, "Failed to add vehicle.")
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

func (h *CustomerHandler) GetVehicles(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id", "customer")
	if !ok {
		return
	}

	vehicles, err := h.customerService.GetVehicles(c.Request.Context(), customerID)
	if err != nil {
		utils.LogError(err, "GetVehicles: Error from customerService.GetVehicles")
		respondCustomerError(c, err, "Failed to fetch vehicles.")
		return
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	c.JSON(http.StatusOK, gin.H{"data": vehicles})
}

func (h *CustomerHandler) UpdateVehicle(c *gin.Context) {
	vehicleID, ok := parseIDParam(c, "id", "vehicle")
	if !ok {
		return
	}
	var req services.VehicleRequest
	if !bindJSON(c, &req, "UpdateVehicle") {
		return
	}

	vehicle, err := h.customerService.UpdateVehicle(c.Request.Context(), vehicleID, req)
	if err != nil {
		utils.LogError(err, "UpdateVehicle: Error from customerService.UpdateVehicle")
		respondCustomerError(c, err, "Failed to update vehicle.")
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

func (h *CustomerHandler) DeleteVehicle(c *gin.Context) {
	vehicleID, ok := parseIDParam(c, "id", "vehicle")
	if !ok {
		return
	}

	if err := h.customerService.DeleteVehicle(c.Request.Context(), vehicleID); err != nil {
		utils.LogError(err, "DeleteVehicle: Error from customerService.DeleteVehicle")
		respondCustomerError(c, err, "Failed to delete vehicle.")
		return
	}
	c.Status(http.StatusNoContent)
}
