package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pixelsock/matrix-configurator-backend/config"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/controller"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/repository"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/service"
	"github.com/pixelsock/matrix-configurator-backend/internal/db"
	"github.com/pixelsock/matrix-configurator-backend/internal/router"
	"github.com/pixelsock/matrix-configurator-backend/internal/scheduler"
	"github.com/pixelsock/matrix-configurator-backend/internal/websocket"
	"github.com/pixelsock/matrix-configurator-backend/pkg/directus"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
	"github.com/pixelsock/matrix-configurator-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting Matrix Configurator Backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
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

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Optional Redis layer for shared catalog caching
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, continuing without shared cache", map[string]interface{}{
				"error": err.Error(),
			})
		}
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close redis connection", err)
			}
		}()
	}

	// Initialize repositories
	lineRepo := repository.NewProductLineRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	ruleRepo := repository.NewRuleRepository(db.GetDB())

	// Initialize services
	catalogService := service.NewCatalogService(lineRepo, productRepo, ruleRepo, cfg.Catalog.CacheTTL)
	filteringService := service.NewFilteringService(
		service.NewRuleEngine(),
		service.NewAvailabilityEngine(),
		service.NewSelectionValidator,
	)
	skuService := service.NewSKUService()
	pricingService := service.NewPricingService()
	configuratorService := service.NewConfiguratorService(catalogService, filteringService, skuService, pricingService)
	exportService := service.NewCatalogExportService(skuService)

	// Optional remote catalog source
	var syncService service.CatalogSyncService
	if cfg.Directus.Enabled {
		remote, err := directus.NewClient(directus.Config{
			BaseURL: cfg.Directus.BaseURL,
			Token:   cfg.Directus.Token,
			Timeout: cfg.Directus.Timeout,
		})
		if err != nil {
			logger.Fatal("Failed to configure remote catalog client", err)
		}
		syncService = service.NewCatalogSyncService(remote, lineRepo, productRepo, ruleRepo, catalogService)
	}

	// WebSocket hub for state pushes
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize controllers
	catalogController := controller.NewCatalogController(catalogService, exportService, syncService)
	configuratorController := controller.NewConfiguratorController(configuratorService, catalogService, skuService)
	wsController := controller.NewWSController(configuratorService, hub, cfg.CORS.AllowedOrigins)

	// Catalog refresh scheduler (optional)
	var refreshScheduler *scheduler.CatalogRefreshScheduler
	if cfg.Catalog.RefreshCron != "" {
		refreshScheduler = scheduler.NewCatalogRefreshScheduler(cfg.Catalog.RefreshCron, catalogService, syncService)
		if err := refreshScheduler.Start(); err != nil {
			logger.Fatal("Failed to start catalog refresh scheduler", err)
		}
	}

	// Setup router
	r := router.NewRouter(
		catalogController,
		configuratorController,
		wsController,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	if refreshScheduler != nil {
		refreshScheduler.Stop()
	}
	logger.Info("Server stopped successfully")
}
