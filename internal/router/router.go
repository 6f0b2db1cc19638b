package router

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"pos_tracker_backend/internal/audit"
	"pos_tracker_backend/internal/cache"
	"pos_tracker_backend/internal/handlers"
	"pos_tracker_backend/internal/middleware"
	"pos_tracker_backend/internal/repositories"
	"pos_tracker_backend/internal/services"
	"pos_tracker_backend/internal/session"
)

// Options carries the infrastructure chosen at startup.
type Options struct {
	Cache        cache.Cache
	Drafts       session.DraftStore
	Recorder     audit.Recorder
	LoginLimiter *middleware.ClientRateLimiter
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, opts Options) {
	// Initialize Repositories
	tx := repositories.NewTxManager(db)
	authRepo := repositories.NewAuthRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	vehicleRepo := repositories.NewVehicleRepository(db)
	inventoryRepo := repositories.NewInventoryRepository(db)
	adjustmentRepo := repositories.NewInventoryAdjustmentRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	// Initialize Services
	authService := services.NewAuthService(authRepo, tx)
	customerService := services.NewCustomerService(customerRepo, vehicleRepo, tx)
	inventoryService := services.NewInventoryService(inventoryRepo, adjustmentRepo, tx, opts.Cache, opts.Recorder)
	orderService := services.NewOrderService(orderRepo, customerRepo, inventoryService, tx, opts.Recorder)
	registrationService := services.NewRegistrationService(opts.Drafts, customerService, orderService, inventoryService,
		customerRepo, vehicleRepo, inventoryRepo, tx, opts.Recorder)
	reportService := services.NewReportService(reportRepo, opts.Cache)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	customerHandler := handlers.NewCustomerHandler(customerService)
	orderHandler := handlers.NewOrderHandler(orderService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	reportHandler := handlers.NewReportHandler(reportService)

	apiV1 := engine.Group("/api/v1")

	loginLimiter := opts.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = middleware.NewClientRateLimiter(10, 5)
	}
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler, loginLimiter)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupCustomerRoutes(authenticated, customerHandler, orderHandler)
		SetupOrderRoutes(authenticated, orderHandler)
		SetupRegistrationRoutes(authenticated, registrationHandler)
		SetupInventoryRoutes(authenticated, inventoryHandler)
		SetupBrandRoutes(authenticated, inventoryHandler)
		SetupDashboardRoutes(authenticated, reportHandler)
	}
}
