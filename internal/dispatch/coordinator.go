// Package dispatch fans a notice out to every active endpoint, deactivating
// any that fail permanently, and aggregates the outcome (§4.F).
package dispatch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vientofactory/lawcast-backend/internal/delivery"
	"github.com/vientofactory/lawcast-backend/internal/domain"
	"github.com/vientofactory/lawcast-backend/internal/executor"
	"github.com/vientofactory/lawcast-backend/internal/ratelimiter"
	"github.com/vientofactory/lawcast-backend/internal/repository"
)

// Coordinator dispatches notices to subscriber endpoints.
type Coordinator struct {
	repo    repository.EndpointRepository
	client  *delivery.Client
	limiter *ratelimiter.Limiter
	logger  *zap.Logger

	// retryCount and retryDelay govern per-endpoint retries of non-permanent
	// failures (§4.D, §8 scenario 4): a 429/NETWORK_ERROR/UNKNOWN_ERROR send
	// is retried up to retryCount times, retryDelay apart, before it is
	// recorded as a temporary failure. Permanent categories are never
	// retried — they deactivate the endpoint on the first attempt.
	retryCount int
	retryDelay time.Duration

	// permanentlyFailed is an advisory, in-memory hint local to this process.
	// The endpoint repository remains the single source of truth for active
	// state; this map just avoids retrying an id within the same tick after
	// it has already been marked for deactivation.
	permanentlyFailed sync.Map

	onSent   func(endpointID int64, latency time.Duration)
	onFailed func(category domain.Category)
}

func New(repo repository.EndpointRepository, client *delivery.Client, limiter *ratelimiter.Limiter, retryCount int, retryDelay time.Duration, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		repo:       repo,
		client:     client,
		limiter:    limiter,
		retryCount: retryCount,
		retryDelay: retryDelay,
		logger:     logger,
		onSent:     func(int64, time.Duration) {},
		onFailed:   func(domain.Category) {},
	}
}

// SetHooks wires the metric callbacks invoked after every per-endpoint send
// attempt. Either argument may be nil to leave that hook a no-op.
func (c *Coordinator) SetHooks(onSent func(endpointID int64, latency time.Duration), onFailed func(category domain.Category)) {
	if onSent != nil {
		c.onSent = onSent
	}
	if onFailed != nil {
		c.onFailed = onFailed
	}
}

// DispatchNotice fetches the currently active endpoints (fresh, so endpoints
// deactivated earlier in the same batch are not retried), sends to each
// sequentially under the rate limiter, deactivates permanent failures, and
// returns an aggregate summary.
func (c *Coordinator) DispatchNotice(ctx context.Context, n domain.Notice) (domain.NoticeDispatchSummary, error) {
	endpoints, err := c.repo.FindActive(ctx)
	if err != nil {
		return domain.NoticeDispatchSummary{}, err
	}

	summary := domain.NoticeDispatchSummary{Notice: n, TotalEndpoints: len(endpoints)}

	for _, ep := range endpoints {
		if _, failed := c.permanentlyFailed.Load(ep.ID); failed {
			continue
		}

		result, err := c.sendWithRetry(ctx, ep, n)
		if err != nil {
			c.logger.Warn("rate limiter wait interrupted", zap.Int64("endpoint_id", ep.ID), zap.Error(err))
			summary.FailedCount++
			summary.TemporaryFailures = append(summary.TemporaryFailures, ep.ID)
			continue
		}

		if result.Success {
			summary.SuccessCount++
			continue
		}

		summary.FailedCount++
		if result.ShouldDelete() {
			summary.Deactivated = append(summary.Deactivated, ep.ID)
			c.permanentlyFailed.Store(ep.ID, struct{}{})
		} else {
			summary.TemporaryFailures = append(summary.TemporaryFailures, ep.ID)
		}
	}

	for _, id := range summary.Deactivated {
		if err := c.repo.Deactivate(ctx, id); err != nil {
			c.logger.Warn("failed to deactivate endpoint after permanent failure",
				zap.Int64("endpoint_id", id), zap.Error(err))
		}
		c.permanentlyFailed.Delete(id)
	}

	return summary, nil
}

// sendWithRetry delivers n to ep, retrying a non-permanent failure up to
// c.retryCount times with c.retryDelay between attempts and re-acquiring the
// per-endpoint rate limiter before each attempt. A permanent failure or a
// successful send returns immediately; the returned error is non-nil only
// when the rate limiter wait itself was interrupted.
func (c *Coordinator) sendWithRetry(ctx context.Context, ep *domain.Endpoint, n domain.Notice) (domain.SendResult, error) {
	var result domain.SendResult

	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if err := c.limiter.Acquire(ctx, ep.ID); err != nil {
			return domain.SendResult{}, err
		}

		start := time.Now()
		result = c.client.SendNotice(ctx, ep.URL, n)
		if result.Success {
			c.limiter.Record(ctx, ep.ID)
			c.onSent(ep.ID, time.Since(start))
			return result, nil
		}

		c.onFailed(result.Category)
		if result.ShouldDelete() || attempt == c.retryCount {
			return result, nil
		}

		timer := time.NewTimer(c.retryDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		}
	}

	return result, nil
}

// DispatchBatch submits one executor job per notice and blocks until every
// job completes, returning one summary per notice in submission order.
func (c *Coordinator) DispatchBatch(ctx context.Context, notices []domain.Notice, ex *executor.Executor, opts executor.Options) ([]domain.NoticeDispatchSummary, error) {
	summaries := make([]domain.NoticeDispatchSummary, len(notices))

	jobs := make([]executor.Job, len(notices))
	for i, n := range notices {
		i, n := i, n
		jobs[i] = func(jobCtx context.Context) error {
			summary, err := c.DispatchNotice(jobCtx, n)
			if err != nil {
				return err
			}
			summaries[i] = summary
			return nil
		}
	}

	if _, err := ex.ExecuteBatch(ctx, jobs, opts); err != nil {
		return nil, err
	}
	return summaries, nil
}
