package handler

import (
	"net/http"

	"github.com/vientofactory/lawcast-backend/internal/cache"
)

const recentNoticesLimit = 20

// NoticeHandler serves recently cached notices (§6 GET /notices/recent).
type NoticeHandler struct {
	cache *cache.RecencyCache
}

func NewNoticeHandler(c *cache.RecencyCache) *NoticeHandler {
	return &NoticeHandler{cache: c}
}

func (h *NoticeHandler) Recent(w http.ResponseWriter, r *http.Request) {
	notices, err := h.cache.Recent(r.Context(), recentNoticesLimit)
	if err != nil {
		respondFail(w, http.StatusInternalServerError, "failed to read recency cache", nil)
		return
	}
	respondData(w, http.StatusOK, notices)
}
