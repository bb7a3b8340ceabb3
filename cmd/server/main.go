package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/cchderek/Property-Search-v1/internal/config"
	"github.com/cchderek/Property-Search-v1/internal/fetch"
	"github.com/cchderek/Property-Search-v1/internal/handlers"
	"github.com/cchderek/Property-Search-v1/internal/logger"
	"github.com/cchderek/Property-Search-v1/internal/middleware"
	"github.com/cchderek/Property-Search-v1/internal/services"
	"github.com/cchderek/Property-Search-v1/internal/upstream"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting Property Search API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Shared retrying HTTP client for the open-data providers
	fetcher := fetch.NewClient(cfg.Upstream.RequestTimeout, cfg.Upstream.MaxRetries, cfg.Upstream.RetryDelay, log)

	// Provider clients
	postcodes := upstream.NewPostcodesClient(cfg.Upstream.PostcodesBaseURL, fetcher)
	landRegistry := upstream.NewLandRegistryClient(cfg.Upstream.LandRegistryBaseURL, fetcher)
	police := upstream.NewPoliceClient(cfg.Upstream.PoliceBaseURL, fetcher)
	flood := upstream.NewFloodClient(cfg.Upstream.FloodZonesBaseURL, cfg.Upstream.FloodMonitorBaseURL, fetcher)

	// Service layer
	clock := clockwork.NewRealClock()
	locationService := services.NewLocationService(postcodes, log)
	priceService := services.NewPriceService(landRegistry, clock, log)
	crimeService := services.NewCrimeService(police, clock, log)
	floodService := services.NewFloodService(flood, log)

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Initialize handlers
	locationHandler := handlers.NewLocationHandler(locationService)
	priceHandler := handlers.NewPriceHandler(priceService)
	crimeHandler := handlers.NewCrimeHandler(crimeService)
	floodHandler := handlers.NewFloodHandler(floodService)

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	{
		locations := v1.Group("/locations")
		{
			locations.GET("/nearby", locationHandler.Nearby)
			locations.GET("/:postcode", locationHandler.Lookup)
		}

		v1.GET("/prices/:area", priceHandler.History)

		crime := v1.Group("/crime")
		{
			crime.GET("", crimeHandler.List)
			crime.GET("/monthly", crimeHandler.Monthly)
			crime.GET("/categories", crimeHandler.Categories)
		}

		v1.GET("/flood", floodHandler.Risk)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
