package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gausamvardhan/storefront-backend/config"
	"github.com/gausamvardhan/storefront-backend/internal/app/controller"
	"github.com/gausamvardhan/storefront-backend/internal/app/repository"
	"github.com/gausamvardhan/storefront-backend/internal/app/service"
	"github.com/gausamvardhan/storefront-backend/internal/cart"
	"github.com/gausamvardhan/storefront-backend/internal/db"
	"github.com/gausamvardhan/storefront-backend/internal/middleware"
	"github.com/gausamvardhan/storefront-backend/internal/router"
	"github.com/gausamvardhan/storefront-backend/internal/scheduler"
	"github.com/gausamvardhan/storefront-backend/internal/storage"
	"github.com/gausamvardhan/storefront-backend/internal/websocket"
	"github.com/gausamvardhan/storefront-backend/pkg/logger"
	"github.com/gausamvardhan/storefront-backend/pkg/redis"
)

func main() {
	// API payloads carry prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logger.Initialize(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting Gausamvardhan storefront", map[string]interface{}{
		"environment":  cfg.Server.Environment,
		"port":         cfg.Server.Port,
		"cart_storage": cfg.Cart.Storage,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs the token blacklist and, optionally, cart storage
	var tokenBlacklist *redis.TokenBlacklist
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
		tokenBlacklist = redis.NewTokenBlacklist(redis.GetClient())
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	cartRecordRepo := repository.NewCartRecordRepository(db.GetDB())

	var cartStorage cart.Storage
	switch cfg.Cart.Storage {
	case config.CartStorageRedis:
		cartStorage = redis.NewCartStorage(redis.GetClient())
	case config.CartStorageMemory:
		logger.Warn("Carts are kept in memory and will not survive a restart", nil)
		cartStorage = cart.NewMemoryStorage()
	default:
		cartStorage = cartRecordRepo
	}

	// Initialize services
	cartService := service.NewCartService(productRepo, cartStorage)
	var revoker service.TokenRevoker
	var checker middleware.TokenChecker
	if tokenBlacklist != nil {
		revoker = tokenBlacklist
		checker = tokenBlacklist
	}
	authService := service.NewAuthService(
		userRepo,
		cartService,
		revoker,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	productService := service.NewProductService(productRepo)
	orderService := service.NewOrderService(orderRepo, cartService)

	// Live cart sync across a user's devices
	hub := websocket.NewHub(cartService.GetCart)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)
	cartService.SetNotifier(hub)

	// Stale saved carts are only swept from the database store
	var retention *scheduler.CartRetentionScheduler
	if cfg.Cart.Storage == config.CartStorageDatabase {
		retention = scheduler.NewCartRetentionScheduler(cartRecordRepo, cfg.Cart.RetentionDays, cfg.Cart.RetentionSchedule)
		if err := retention.Start(); err != nil {
			logger.Fatal("Failed to start cart retention scheduler", err)
		}
	}

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService, hub, cfg.CORS.AllowedOrigins)
	orderController := controller.NewOrderController(orderService, authService)
	uploadController := controller.NewUploadController(storage.NewS3Storage(cfg.S3))

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, checker)

	r := router.NewRouter(
		authController,
		productController,
		cartController,
		orderController,
		uploadController,
		authMiddleware,
		cfg,
	)
	r.AddHealthCheck("database", func() error {
		sqlDB, err := db.GetDB().DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	})
	if cfg.Redis.Enabled {
		r.AddHealthCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redis.GetClient().Ping(ctx).Err()
		})
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	if retention != nil {
		retention.Stop()
	}
	stopHub()

	logger.Info("Server stopped successfully")
}
