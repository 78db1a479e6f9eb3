// Package executor runs bounded-concurrency batches of jobs with per-job
// retry and timeout, and tracks long-running batches in an in-flight job
// table so callers can submit without blocking (§4.E).
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// Job is one unit of batch work. Returning a non-nil error marks the
// attempt failed and triggers a retry, up to Options.RetryCount.
type Job func(ctx context.Context) error

// JobResult is one job's outcome after all retries are exhausted or it
// succeeds.
type JobResult struct {
	Success  bool
	Error    error
	Duration time.Duration
}

// Options configures one call to ExecuteBatch.
type Options struct {
	Concurrency int
	Timeout     time.Duration
	RetryCount  int
	RetryDelay  time.Duration
	// BatchSize, if > 0 and less than len(jobs), splits jobs into contiguous
	// slices processed sequentially; the concurrency ceiling applies within
	// each slice independently.
	BatchSize int
}

// DefaultOptions matches the source's defaults: concurrency 10, 30s timeout,
// 3 retries, 1s retry delay.
func DefaultOptions() Options {
	return Options{
		Concurrency: 10,
		Timeout:     30 * time.Second,
		RetryCount:  3,
		RetryDelay:  time.Second,
	}
}

// executeBatch is the pure, non-tracked batch runner. A failing job never
// aborts the batch; results are returned in submission order.
func executeBatch(ctx context.Context, jobs []Job, opts Options) []JobResult {
	results := make([]JobResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	sliceSize := len(jobs)
	if opts.BatchSize > 0 && opts.BatchSize < sliceSize {
		sliceSize = opts.BatchSize
	}

	for start := 0; start < len(jobs); start += sliceSize {
		end := start + sliceSize
		if end > len(jobs) {
			end = len(jobs)
		}
		runSlice(ctx, jobs[start:end], results[start:end], opts)
	}

	return results
}

// runSlice runs one contiguous slice under a concurrency ceiling. Using a
// weighted semaphore rather than literal fixed-size chunking still yields
// the rolling-window behavior the source describes — the contract is the
// concurrency bound, not the scheduling primitive.
func runSlice(ctx context.Context, jobs []Job, results []JobResult, opts Options) {
	sem := semaphore.NewWeighted(int64(opts.Concurrency))

	done := make(chan struct{}, len(jobs))
	for i := range jobs {
		i := i
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = JobResult{Success: false, Error: err}
			done <- struct{}{}
			continue
		}
		go func() {
			defer sem.Release(1)
			defer func() { done <- struct{}{} }()
			results[i] = runWithRetry(ctx, jobs[i], opts)
		}()
	}

	for range jobs {
		<-done
	}
}

// runWithRetry attempts job up to opts.RetryCount+1 times, racing each
// attempt against opts.Timeout and sleeping opts.RetryDelay between
// attempts.
func runWithRetry(ctx context.Context, job Job, opts Options) JobResult {
	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= opts.RetryCount; attempt++ {
		if err := ctx.Err(); err != nil {
			return JobResult{Success: false, Error: err, Duration: time.Since(start)}
		}

		if err := runWithTimeout(ctx, job, opts.Timeout); err != nil {
			lastErr = err
			if attempt < opts.RetryCount {
				timer := time.NewTimer(opts.RetryDelay)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return JobResult{Success: false, Error: ctx.Err(), Duration: time.Since(start)}
				}
			}
			continue
		}

		return JobResult{Success: true, Duration: time.Since(start)}
	}

	return JobResult{Success: false, Error: lastErr, Duration: time.Since(start)}
}

func runWithTimeout(ctx context.Context, job Job, timeout time.Duration) error {
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- job(jobCtx) }()

	select {
	case err := <-done:
		return err
	case <-jobCtx.Done():
		if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("job timed out after %s: %w", timeout, jobCtx.Err())
		}
		return jobCtx.Err()
	}
}
