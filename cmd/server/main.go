package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/nyumba/waterboard/internal/config"
	"github.com/nyumba/waterboard/internal/handler"
	"github.com/nyumba/waterboard/internal/service"
	"github.com/nyumba/waterboard/internal/upstream"
	"github.com/nyumba/waterboard/pkg/logging"
	"github.com/nyumba/waterboard/pkg/response"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level)

	// Initialize Redis (optional snapshot mirror)
	redisClient := initRedis(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize upstream client and service
	upstreamClient := upstream.NewHTTPClient(cfg)
	dashboardService := service.NewDashboardService(upstreamClient, redisClient, cfg)

	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	healthHandler := handler.NewHealthHandler(upstreamClient, redisClient)

	// Seed the snapshot: warm start from the mirror if possible, then do the
	// initial upstream load. A failed initial load is not fatal; the dashboard
	// serves what it has until a refresh succeeds.
	warmAndRefresh(dashboardService, cfg)

	// Setup routes
	router := setupRoutes(dashboardHandler, healthHandler)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		slog.Info("server starting", "addr", server.Addr, "upstream", cfg.Upstream.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited")
}

func warmAndRefresh(svc *service.DashboardService, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetUpstreamTimeout())
	defer cancel()

	if svc.WarmStart(ctx) {
		slog.Info("snapshot warm-started from cache")
	}
	if err := svc.Refresh(ctx); err != nil {
		slog.Warn("initial snapshot load failed, serving stale or empty data", "error", err)
	}
}

func initRedis(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(dashboardHandler *handler.DashboardHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.RequestIDMiddleware)
	router.Use(response.CORSMiddleware)
	router.Use(response.LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/dashboard/stats", dashboardHandler.GetStats).Methods("GET")
	api.HandleFunc("/dashboard/monthly", dashboardHandler.GetMonthly).Methods("GET")
	api.HandleFunc("/readings", dashboardHandler.ListReadings).Methods("GET")
	api.HandleFunc("/readings", dashboardHandler.CreateReading).Methods("POST")
	api.HandleFunc("/readings/{id}", dashboardHandler.UpdateReading).Methods("PUT")
	api.HandleFunc("/readings/{id}", dashboardHandler.DeleteReading).Methods("DELETE")
	api.HandleFunc("/readings/{id}/suggested-payment", dashboardHandler.SuggestedPayment).Methods("GET")
	api.HandleFunc("/readings/{id}/payments", dashboardHandler.RecordPayment).Methods("POST")
	api.HandleFunc("/readings/{id}/status", dashboardHandler.UpdateStatus).Methods("PUT")
	api.HandleFunc("/refresh", dashboardHandler.Refresh).Methods("POST")

	return router
}
