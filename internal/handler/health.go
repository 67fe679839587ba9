package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nyumba/waterboard/internal/upstream"
	"github.com/nyumba/waterboard/pkg/response"
)

type HealthHandler struct {
	upstream upstream.Client
	redis    *redis.Client
}

func NewHealthHandler(upstreamClient upstream.Client, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{
		upstream: upstreamClient,
		redis:    redisClient,
	}
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health performs a basic health check
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	response.Success(w, status)
}

// Ready performs readiness check including upstream and redis connectivity
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.upstream.Ping(ctx); err != nil {
		status.Status = "error"
		status.Checks["upstream"] = "failed: " + err.Error()
	} else {
		status.Checks["upstream"] = "ok"
	}

	if h.redis != nil {
		redisCtx, redisCancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer redisCancel()

		if err := h.redis.Ping(redisCtx).Err(); err != nil {
			status.Status = "error"
			status.Checks["redis"] = "failed: " + err.Error()
		} else {
			status.Checks["redis"] = "ok"
		}
	}

	if status.Status == "error" {
		response.Error(w, http.StatusServiceUnavailable, "Service not ready", nil)
		return
	}

	response.Success(w, status)
}
