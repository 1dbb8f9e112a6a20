package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gate-validator/config"
	"gate-validator/handlers"
	"gate-validator/services"
	"gate-validator/utils"
)

func main() {
	cfg := config.LoadConfig()

	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	store, err := services.NewPostgresStore(cfg.StoreDSN, cfg.StoreTimeout)
	if err != nil {
		log.Fatalf("Failed to open ticket store: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := services.NewCacheService(redisClient, cfg.DeviceID)
	cache.Load(ctx)

	syncService := services.NewSyncService(cache, store, cfg.SyncInterval)
	connService := services.NewConnectivityService(store, cfg.ProbeInterval, syncService.OnReconnect)
	validatorService := services.NewValidatorService(cache, store, connService,
		cfg.WriteThroughBaseDelay, cfg.WriteThroughMaxDelay)

	connService.Init(ctx)
	if err := syncService.Start(ctx); err != nil {
		log.Fatalf("Failed to start sync engine: %v", err)
	}
	defer syncService.Stop()

	go connService.Run(ctx)

	gateHandler := handlers.NewGateHandler(validatorService, syncService, connService)

	e := echo.New()
	e.POST("/api/validate", gateHandler.Validate)
	e.GET("/api/sync/status", gateHandler.SyncStatus)
	e.POST("/api/sync/force", gateHandler.ForceSync)
	e.GET("/health", func(c echo.Context) error {
		if err := utils.RedisHealthCheck(redisClient); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status":       "ok",
			"store_online": connService.IsOnline(),
		})
	})

	if cfg.EnableMetrics {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Printf("Metrics listening on :%s", cfg.MetricsPort)
			if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: e,
	}

	go handleShutdown(cancel, server, syncService)

	log.Printf("Gate validator %s listening on :%s", cfg.DeviceID, cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

func handleShutdown(cancel context.CancelFunc, server *http.Server, syncService *services.SyncService) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	// One last chance to hand pending validations to the store.
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := syncService.PushPending(flushCtx); err != nil {
		log.Printf("Final push skipped: %v", err)
	}
	flushCancel()

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
