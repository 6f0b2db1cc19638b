package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"pos_tracker_backend/internal/audit"
	"pos_tracker_backend/internal/cache"
	"pos_tracker_backend/internal/config"
	"pos_tracker_backend/internal/database"
	"pos_tracker_backend/internal/metrics"
	"pos_tracker_backend/internal/middleware"
	"pos_tracker_backend/internal/repositories"
	"pos_tracker_backend/internal/router"
	"pos_tracker_backend/internal/services"
	"pos_tracker_backend/internal/session"
	"pos_tracker_backend/pkg/utils"
)

func main() {
	cfg := config.Load()

	// Initialize Logger
	utils.InitLogger(cfg.Logger.Level, cfg.Logger.Format)
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.TTL)
	if cfg.JWT.Secret == "" {
		utils.LogWarn(nil, "JWT_SECRET is not set; using the built-in development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	db, err := database.Open(ctx, cfg.Postgres)
	if err != nil {
		utils.LogError(err, "Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Postgres.RunMigrations {
		if err := database.ApplyMigrations(db); err != nil {
			utils.LogError(err, "Failed to apply migrations")
			os.Exit(1)
		}
	}

	var (
		appCache cache.Cache
		drafts   session.DraftStore
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			utils.LogError(err, "Failed to connect to redis")
			os.Exit(1)
		}
		appCache = cache.NewRedisCache(rdb, "pos:")
		drafts = session.NewRedisDraftStore(rdb, cfg.Wizard.DraftTTL)
		utils.LogInfo("Using redis for cache and registration drafts", map[string]interface{}{"addr": cfg.Redis.Addr})
	} else {
		appCache = cache.NewMemoryCache()
		drafts = session.NewMemoryDraftStore(cfg.Wizard.DraftTTL)
		utils.LogInfo("Using in-process cache and registration drafts")
	}

	var recorder audit.Recorder = audit.NewLogRecorder()
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			utils.LogWarn(err, "Kafka unavailable, order events will only be logged", map[string]interface{}{"brokers": cfg.Kafka.Brokers})
		} else {
			defer publisher.Close()
			recorder = publisher
		}
	}

	authService := services.NewAuthService(repositories.NewAuthRepository(db), repositories.NewTxManager(db))
	if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		utils.LogError(err, "Failed to bootstrap admin user")
		os.Exit(1)
	}

	gin.SetMode(cfg.Server.GinMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())
	engine.Use(metrics.GinMiddleware())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.Setup(engine, db, router.Options{
		Cache:        appCache,
		Drafts:       drafts,
		Recorder:     recorder,
		LoginLimiter: middleware.NewClientRateLimiter(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Server.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Server forced to shutdown")
	}
}
