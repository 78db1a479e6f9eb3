package handler

import (
	"net/http"

	"github.com/vientofactory/lawcast-backend/internal/executor"
)

// BatchHandler exposes the executor's in-flight job table (§6 GET /batch/status).
type BatchHandler struct {
	ex *executor.Executor
}

func NewBatchHandler(ex *executor.Executor) *BatchHandler {
	return &BatchHandler{ex: ex}
}

func (h *BatchHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, h.ex.Status())
}
