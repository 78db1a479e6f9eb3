package health_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vientofactory/lawcast-backend/internal/health"
	"github.com/vientofactory/lawcast-backend/internal/repository"
)

func TestNew_InvalidTimezoneErrors(t *testing.T) {
	repo := repository.NewMockEndpointRepository()
	if _, err := health.New(repo, "Not/A/Real/Zone", 2, zap.NewNop()); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestNew_ValidTimezone(t *testing.T) {
	repo := repository.NewMockEndpointRepository()
	m, err := health.New(repo, "Asia/Seoul", 2, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Fatal("expected non-nil monitor")
	}
}

func TestMonitor_RunStopsOnContextCancel(t *testing.T) {
	repo := repository.NewMockEndpointRepository()
	m, err := health.New(repo, "UTC", 2, zap.NewNop())
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
