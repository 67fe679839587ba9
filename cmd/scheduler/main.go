package main

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/nyumba/waterboard/internal/config"
	"github.com/nyumba/waterboard/pkg/logging"
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
	slog.Info("starting refresh scheduler", "target", cfg.Scheduler.TargetURL, "spec", cfg.Scheduler.RefreshSpec)

	// Initialize cron scheduler
	c := cron.New(cron.WithSeconds())

	if err := setupCronJobs(c, cfg); err != nil {
		slog.Error("failed to schedule jobs", "error", err)
		os.Exit(1)
	}

	// Start the scheduler
	c.Start()
	slog.Info("scheduler started")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down scheduler")
	c.Stop()
	slog.Info("scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config) error {
	target := strings.TrimRight(cfg.Scheduler.TargetURL, "/") + "/api/v1/refresh"
	client := &http.Client{Timeout: cfg.GetUpstreamTimeout()}

	// Periodic snapshot refresh so the dashboard never drifts far from the
	// upstream even when no operator is clicking around.
	_, err := c.AddFunc(cfg.Scheduler.RefreshSpec, func() {
		refreshSnapshot(client, target)
	})
	return err
}

func refreshSnapshot(client *http.Client, target string) {
	start := time.Now()

	resp, err := client.Post(target, "application/json", nil)
	if err != nil {
		slog.Error("refresh request failed", "target", target, "error", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("refresh rejected", "target", target, "status", resp.Status)
		return
	}

	slog.Info("snapshot refreshed", "duration", time.Since(start))
}
