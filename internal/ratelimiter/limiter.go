// Package ratelimiter enforces a global and a per-endpoint send rate backed
// by last-send timestamps in the shared cache (§4.C). Unlike a local token
// bucket, the state here is shared across process restarts and (if deployed
// behind a single Redis) across replicas — the rate limit described by the
// source is a computed "wait against last send" against a value that must
// outlive any one process.
package ratelimiter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// GlobalPerSecond is the steady-state ceiling across all endpoints.
	GlobalPerSecond = 30
	// PerWebhookPerMinute is the steady-state ceiling for one endpoint.
	PerWebhookPerMinute = 60
)

// Limiter computes and enforces the minimum inter-send interval, globally and
// per endpoint, using timestamps persisted in Redis.
type Limiter struct {
	client *redis.Client
	prefix string
	logger *zap.Logger

	minIntervalGlobal   time.Duration
	minIntervalEndpoint time.Duration
}

func New(client *redis.Client, keyPrefix string, logger *zap.Logger) *Limiter {
	return &Limiter{
		client:              client,
		prefix:              keyPrefix,
		logger:              logger,
		minIntervalGlobal:   time.Second / GlobalPerSecond,
		minIntervalEndpoint: time.Minute / PerWebhookPerMinute,
	}
}

func (l *Limiter) globalKey() string { return l.prefix + "rate_limit:global" }
func (l *Limiter) endpointKey(id int64) string {
	return l.prefix + "rate_limit:webhook:" + strconv.FormatInt(id, 10)
}

// Acquire blocks until both the global and the per-endpoint minimum interval
// since the last successful send have elapsed. A Redis read failure degrades
// to treating the last send as time zero — rate limiting becomes best-effort
// rather than failing the dispatch.
func (l *Limiter) Acquire(ctx context.Context, endpointID int64) error {
	now := time.Now()

	globalWait := l.waitFor(ctx, l.globalKey(), l.minIntervalGlobal, now)
	endpointWait := l.waitFor(ctx, l.endpointKey(endpointID), l.minIntervalEndpoint, now)

	wait := globalWait
	if endpointWait > wait {
		wait = endpointWait
	}
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Limiter) waitFor(ctx context.Context, key string, minInterval time.Duration, now time.Time) time.Duration {
	last, err := l.lastSend(ctx, key)
	if err != nil {
		l.logger.Warn("rate limiter degraded to best-effort", zap.String("key", key), zap.Error(err))
		return 0
	}
	if last.IsZero() {
		return 0
	}

	elapsed := now.Sub(last)
	if elapsed >= minInterval {
		return 0
	}
	return minInterval - elapsed
}

func (l *Limiter) lastSend(ctx context.Context, key string) (time.Time, error) {
	raw, err := l.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read last send: %w", err)
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last send: %w", err)
	}
	return time.UnixMilli(ms), nil
}

// Record marks endpointID (and the global key) as having just sent
// successfully. Called only after a successful send — failed attempts must
// not advance either timestamp. Persist failures are logged and swallowed:
// losing a single timestamp update only makes the next Acquire slightly too
// permissive, which the source treats as an acceptable trade-off.
func (l *Limiter) Record(ctx context.Context, endpointID int64) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)

	pipe := l.client.Pipeline()
	pipe.Set(ctx, l.globalKey(), now, 0)
	pipe.Set(ctx, l.endpointKey(endpointID), now, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn("rate limiter failed to record send", zap.Int64("endpoint_id", endpointID), zap.Error(err))
	}
}
