package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vientofactory/lawcast-backend/internal/domain"
)

// envelope is the single response shape every route returns (§6).
type envelope struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Data       any    `json:"data,omitempty"`
	Details    any    `json:"details,omitempty"`
	Errors     any    `json:"errors,omitempty"`
	TestResult any    `json:"testResult,omitempty"`
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{Success: true, Message: message})
}

func respondFail(w http.ResponseWriter, status int, message string, details any) {
	respondJSON(w, status, envelope{Success: false, Message: message, Details: details})
}

func respondJSON(w http.ResponseWriter, status int, v envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// mapError translates domain sentinel errors to HTTP status codes and
// messages per the error taxonomy (§7). All mapping lives here so individual
// handlers stay concise.
func mapError(w http.ResponseWriter, err error) {
	var testErr *domain.DeliveryTestError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondFail(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, domain.ErrConflict):
		respondFail(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidURL), errors.Is(err, domain.ErrInvalidToken):
		respondFail(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrVerificationFailed):
		respondFail(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrQuotaExceeded):
		respondFail(w, http.StatusTooManyRequests, err.Error(), nil)
	case errors.As(err, &testErr):
		respondFail(w, http.StatusBadRequest, err.Error(), map[string]string{"category": string(testErr.Category)})
	case errors.Is(err, domain.ErrShuttingDown):
		respondFail(w, http.StatusServiceUnavailable, err.Error(), nil)
	case errors.Is(err, domain.ErrJobNotFound):
		respondFail(w, http.StatusNotFound, err.Error(), nil)
	default:
		respondFail(w, http.StatusInternalServerError, "internal server error", nil)
	}
}
