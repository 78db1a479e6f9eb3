package handler

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// HealthHandler serves the liveness probe endpoint (§6 GET /health).
type HealthHandler struct {
	redis *redis.Client
}

func NewHealthHandler(redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{redis: redisClient}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	cacheState := "connected"
	if err := h.redis.Ping(r.Context()).Err(); err != nil {
		cacheState = "disconnected"
	}

	respondData(w, http.StatusOK, map[string]any{
		"timestamp": time.Now().UTC(),
		"cache":     cacheState,
	})
}
