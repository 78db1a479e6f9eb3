package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vientofactory/lawcast-backend/internal/domain"
)

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		providerCode int
		want         domain.Category
	}{
		{"not found", 404, 0, domain.CategoryNotFound},
		{"unknown webhook provider code", 200, discordUnknownWebhookCode, domain.CategoryNotFound},
		{"unauthorized", 401, 0, domain.CategoryUnauthorized},
		{"forbidden", 403, 0, domain.CategoryForbidden},
		{"rate limited", 429, 0, domain.CategoryRateLimited},
		{"other 4xx", 400, 0, domain.CategoryInvalidWebhook},
		{"server error", 500, 0, domain.CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyResponse(tt.status, tt.providerCode); got != tt.want {
				t.Fatalf("classifyResponse(%d, %d) = %v, want %v", tt.status, tt.providerCode, got, tt.want)
			}
		})
	}
}

func TestClient_SendNotice_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	result := c.SendNotice(context.Background(), srv.URL, domain.Notice{Num: 1, Subject: "s"})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestClient_SendNotice_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	result := c.SendNotice(context.Background(), srv.URL, domain.Notice{Num: 1})
	if result.Success || result.Category != domain.CategoryNotFound {
		t.Fatalf("expected classified not-found failure, got %+v", result)
	}
	if !result.ShouldDelete() {
		t.Fatal("expected not-found to be permanent")
	}
}

func TestClient_SendNotice_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	result := c.SendNotice(context.Background(), srv.URL, domain.Notice{Num: 1})
	if result.Success || result.Category != domain.CategoryRateLimited {
		t.Fatalf("expected rate-limited failure, got %+v", result)
	}
	if result.ShouldDelete() {
		t.Fatal("rate-limited failure must not be permanent")
	}
}

func TestClient_SendNotice_InvalidURL(t *testing.T) {
	c := NewClient(2 * time.Second)
	result := c.SendNotice(context.Background(), "://not a url", domain.Notice{Num: 1})
	if result.Success || result.Category != domain.CategoryInvalidWebhook {
		t.Fatalf("expected invalid webhook classification, got %+v", result)
	}
}

func TestClient_TestDelivery_UsesWelcomeEmbed(t *testing.T) {
	var received embedPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	result := c.TestDelivery(context.Background(), srv.URL)
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(received.Embeds) != 1 || received.Embeds[0].Title != "subscription confirmed" {
		t.Fatalf("expected welcome embed body, got %+v", received)
	}
}
