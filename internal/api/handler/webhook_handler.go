package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apimw "github.com/vientofactory/lawcast-backend/internal/api/middleware"
	"github.com/vientofactory/lawcast-backend/internal/domain"
	"github.com/vientofactory/lawcast-backend/internal/repository"
	"github.com/vientofactory/lawcast-backend/internal/service"
)

// WebhookHandler handles subscription registration and the endpoint
// statistics surfaces (§6 POST /webhooks, GET /webhooks/stats/detailed,
// GET /webhooks/system-health).
type WebhookHandler struct {
	svc      *service.WebhookService
	repo     repository.EndpointRepository
	validate *validator.Validate
	logger   *zap.Logger
}

func NewWebhookHandler(svc *service.WebhookService, repo repository.EndpointRepository, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, repo: repo, validate: validator.New(), logger: logger}
}

// Register handles POST /api/webhooks.
func (h *WebhookHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondFail(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	endpoint, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.logger.Warn("webhook registration failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondData(w, http.StatusCreated, endpoint)
}

// StatsDetailed handles GET /api/webhooks/stats/detailed.
func (h *WebhookHandler) StatsDetailed(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		respondFail(w, http.StatusInternalServerError, "failed to load endpoint stats", nil)
		return
	}
	respondData(w, http.StatusOK, stats)
}

// SystemHealth handles GET /api/webhooks/system-health.
func (h *WebhookHandler) SystemHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		respondFail(w, http.StatusInternalServerError, "failed to load endpoint stats", nil)
		return
	}

	status := "needs_optimization"
	if stats.Efficiency >= 70 {
		status = "healthy"
	}

	respondData(w, http.StatusOK, map[string]any{
		"efficiency": stats.Efficiency,
		"stats":      stats,
		"status":     status,
	})
}
