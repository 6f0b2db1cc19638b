package router

import (
	"github.com/gin-gonic/gin"

	"pos_tracker_backend/internal/handlers"
	"pos_tracker_backend/internal/middleware"
	"pos_tracker_backend/internal/models"
)

var (
	anyRole       = []string{models.RoleAdmin, models.RoleManager, models.RoleStaff}
	inventoryRole = []string{models.RoleAdmin, models.RoleManager}
)

// SetupPublicAuthRoutes registers login behind the per-IP limiter.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler, limiter *middleware.ClientRateLimiter) {
	group.POST("/login", middleware.RateLimit(limiter), authHandler.LoginUser)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
}

// SetupCustomerRoutes sets up the customer and vehicle routes.
func SetupCustomerRoutes(authenticatedGroup *gin.RouterGroup, customerHandler *handlers.CustomerHandler, orderHandler *handlers.OrderHandler) {
	customerRoutes := authenticatedGroup.Group("/customers")
	customerRoutes.Use(middleware.RoleAuthMiddleware(anyRole...))
	{
		customerRoutes.POST("", customerHandler.CreateCustomer)
		customerRoutes.GET("", customerHandler.GetCustomers)
		customerRoutes.POST("/quick-create", customerHandler.QuickCreateCustomer)
		customerRoutes.GET("/check-duplicate", customerHandler.CheckDuplicate)
		customerRoutes.GET("/:id", customerHandler.GetCustomerByID)
		customerRoutes.PUT("/:id", customerHandler.UpdateCustomer)
		customerRoutes.DELETE("/:id", customerHandler.DeleteCustomer)
		customerRoutes.GET("/:id/vehicles", customerHandler.GetVehicles)
		customerRoutes.POST("/:id/vehicles", customerHandler.AddVehicle)
		customerRoutes.POST("/:id/orders", orderHandler.CreateOrder)
	}

	vehicleRoutes := authenticatedGroup.Group("/vehicles")
	vehicleRoutes.Use(middleware.RoleAuthMiddleware(anyRole...))
	{
		vehicleRoutes.PUT("/:id", customerHandler.UpdateVehicle)
		vehicleRoutes.DELETE("/:id", customerHandler.DeleteVehicle)
	}
}

// SetupOrderRoutes sets up the order routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware(anyRole...))
	{
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/recent", orderHandler.GetRecentOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.PUT("/:id", orderHandler.UpdateOrder)
		orderRoutes.PATCH("/:id/status", orderHandler.UpdateOrderStatus)
		orderRoutes.DELETE("/:id", orderHandler.DeleteOrder)
	}
}

func SetupRegistrationRoutes(authenticatedGroup *gin.RouterGroup, registrationHandler *handlers.RegistrationHandler) {
	registrationRoutes := authenticatedGroup.Group("/registration")
	registrationRoutes.Use(middleware.RoleAuthMiddleware(anyRole...))
	{
		registrationRoutes.GET("/steps/:step", registrationHandler.GetStep)
		registrationRoutes.POST("/steps/:step", registrationHandler.SubmitStep)
		registrationRoutes.DELETE("", registrationHandler.ResetWizard)
	}
}

// SetupInventoryRoutes sets up item, stock and adjustment routes.
// Reads are open to every role; writes need manager or admin.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	readRoutes := authenticatedGroup.Group("/inventory")
	readRoutes.Use(middleware.RoleAuthMiddleware(anyRole...))
	{
		readRoutes.GET("/items", inventoryHandler.GetItems)
		readRoutes.GET("/items/:id", inventoryHandler.GetItemByID)
		readRoutes.GET("/low-stock", inventoryHandler.GetLowStock)
		readRoutes.GET("/summary", inventoryHandler.GetItemSummaries)
		readRoutes.GET("/brands-for-item", inventoryHandler.GetBrandsForItem)
		readRoutes.GET("/stock", inventoryHandler.GetStock)
		readRoutes.GET("/adjustments", inventoryHandler.GetAdjustments)
	}

	writeRoutes := authenticatedGroup.Group("/inventory")
	writeRoutes.Use(middleware.RoleAuthMiddleware(inventoryRole...))
	{
		writeRoutes.POST("/items", inventoryHandler.CreateItem)
		writeRoutes.PUT("/items/:id", inventoryHandler.UpdateItem)
		writeRoutes.DELETE("/items/:id", inventoryHandler.DeleteItem)
		writeRoutes.POST("/stock/adjust", inventoryHandler.AdjustStock)
		writeRoutes.POST("/adjustments", inventoryHandler.CreateAdjustment)
	}
}

func SetupBrandRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	authenticatedGroup.GET("/brands", middleware.RoleAuthMiddleware(anyRole...), inventoryHandler.GetBrands)

	brandWriteRoutes := authenticatedGroup.Group("/brands")
	brandWriteRoutes.Use(middleware.RoleAuthMiddleware(inventoryRole...))
	{
		brandWriteRoutes.POST("", inventoryHandler.CreateBrand)
		brandWriteRoutes.DELETE("/:id", inventoryHandler.DeleteBrand)
	}
}

// SetupDashboardRoutes sets up the dashboard routes.
func SetupDashboardRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	dashboardRoutes := authenticatedGroup.Group("/dashboard")
	dashboardRoutes.Use(middleware.RoleAuthMiddleware(anyRole...))
	{
		dashboardRoutes.GET("/summary", reportHandler.GetDashboardSummary)
	}
}
