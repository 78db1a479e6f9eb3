package handler

import (
	"net/http"

	"github.com/vientofactory/lawcast-backend/internal/cache"
	"github.com/vientofactory/lawcast-backend/internal/executor"
	"github.com/vientofactory/lawcast-backend/internal/repository"
)

// StatsHandler serves the combined operator snapshot (§6 GET /stats).
type StatsHandler struct {
	repo  repository.EndpointRepository
	cache *cache.RecencyCache
	ex    *executor.Executor
}

func NewStatsHandler(repo repository.EndpointRepository, c *cache.RecencyCache, ex *executor.Executor) *StatsHandler {
	return &StatsHandler{repo: repo, cache: c, ex: ex}
}

func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	webhookStats, err := h.repo.Stats(r.Context())
	if err != nil {
		respondFail(w, http.StatusInternalServerError, "failed to load endpoint stats", nil)
		return
	}

	cacheMeta, err := h.cache.Meta(r.Context())
	if err != nil {
		respondFail(w, http.StatusInternalServerError, "failed to load cache metadata", nil)
		return
	}

	respondData(w, http.StatusOK, map[string]any{
		"webhooks":        webhookStats,
		"cache":           cacheMeta,
		"batchProcessing": h.ex.Status(),
	})
}
