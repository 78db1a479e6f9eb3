package ratelimiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vientofactory/lawcast-backend/internal/ratelimiter"
)

func newTestLimiter(t *testing.T) *ratelimiter.Limiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return ratelimiter.New(client, "lawcast:", zap.NewNop())
}

func TestLimiter_AcquireWithoutPriorSendNeverBlocks(t *testing.T) {
	l := newTestLimiter(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := l.Acquire(ctx, 1); err != nil {
		t.Fatalf("expected immediate acquire, got %v", err)
	}
}

func TestLimiter_RecordThenAcquireWaitsOutMinInterval(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()

	l.Record(ctx, 1)

	start := time.Now()
	acquireCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := l.Acquire(acquireCtx, 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	elapsed := time.Since(start)

	// Per-endpoint floor is 1s (60/min); global floor is ~33ms. The binding
	// constraint for a just-recorded endpoint is the per-endpoint interval.
	if elapsed < 900*time.Millisecond {
		t.Fatalf("expected acquire to wait out the per-endpoint interval, waited only %v", elapsed)
	}
}

func TestLimiter_DifferentEndpointsDoNotBlockEachOtherBeyondGlobal(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()

	l.Record(ctx, 1)

	start := time.Now()
	acquireCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := l.Acquire(acquireCtx, 2); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	elapsed := time.Since(start)

	// Endpoint 2 has never sent, so only the global floor (~33ms) applies.
	if elapsed > 500*time.Millisecond {
		t.Fatalf("expected a different endpoint to be gated only by the global interval, waited %v", elapsed)
	}
}

func TestLimiter_AcquireRespectsContextCancellation(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()
	l.Record(ctx, 1)

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()

	err := l.Acquire(cancelCtx, 1)
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
}
