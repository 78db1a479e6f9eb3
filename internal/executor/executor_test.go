package executor_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vientofactory/lawcast-backend/internal/executor"
)

func TestExecuteBatch_AllSucceed(t *testing.T) {
	e := executor.New(zap.NewNop())
	jobs := make([]executor.Job, 5)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error { return nil }
	}

	results, err := e.ExecuteBatch(context.Background(), jobs, executor.DefaultOptions())
	if err != nil {
		t.Fatalf("execute batch: %v", err)
	}
	for i, r := range results {
		if !r.Success {
			t.Fatalf("job %d expected success, got %+v", i, r)
		}
	}
}

func TestExecuteBatch_FailingJobDoesNotAbortBatch(t *testing.T) {
	e := executor.New(zap.NewNop())
	jobs := []executor.Job{
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return errors.New("boom") },
		func(ctx context.Context) error { return nil },
	}
	opts := executor.DefaultOptions()
	opts.RetryCount = 0
	opts.RetryDelay = time.Millisecond

	results, err := e.ExecuteBatch(context.Background(), jobs, opts)
	if err != nil {
		t.Fatalf("execute batch: %v", err)
	}
	if !results[0].Success || results[1].Success || !results[2].Success {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestExecuteBatch_RetriesUpToRetryCount(t *testing.T) {
	e := executor.New(zap.NewNop())
	var attempts atomic.Int32
	jobs := []executor.Job{
		func(ctx context.Context) error {
			attempts.Add(1)
			return errors.New("always fails")
		},
	}
	opts := executor.DefaultOptions()
	opts.RetryCount = 2
	opts.RetryDelay = time.Millisecond

	results, err := e.ExecuteBatch(context.Background(), jobs, opts)
	if err != nil {
		t.Fatalf("execute batch: %v", err)
	}
	if results[0].Success {
		t.Fatal("expected failure after exhausting retries")
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("expected 3 attempts (1 + 2 retries), got %d", got)
	}
}

func TestExecuteBatch_JobTimeout(t *testing.T) {
	e := executor.New(zap.NewNop())
	jobs := []executor.Job{
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	opts := executor.DefaultOptions()
	opts.Timeout = 20 * time.Millisecond
	opts.RetryCount = 0

	start := time.Now()
	results, err := e.ExecuteBatch(context.Background(), jobs, opts)
	if err != nil {
		t.Fatalf("execute batch: %v", err)
	}
	if results[0].Success {
		t.Fatal("expected timeout failure")
	}
	if results[0].Error == nil || !strings.Contains(results[0].Error.Error(), "timed out") {
		t.Fatalf("expected error message to contain %q, got %v", "timed out", results[0].Error)
	}
	if time.Since(start) > time.Second {
		t.Fatal("job timeout took too long to be enforced")
	}
}

func TestExecuteBatch_ConcurrencyCeiling(t *testing.T) {
	e := executor.New(zap.NewNop())
	var current, maxObserved atomic.Int32

	jobs := make([]executor.Job, 20)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error {
			n := current.Add(1)
			for {
				m := maxObserved.Load()
				if n <= m || maxObserved.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
			return nil
		}
	}

	opts := executor.DefaultOptions()
	opts.Concurrency = 3

	if _, err := e.ExecuteBatch(context.Background(), jobs, opts); err != nil {
		t.Fatalf("execute batch: %v", err)
	}
	if maxObserved.Load() > 3 {
		t.Fatalf("expected concurrency ceiling of 3, observed %d", maxObserved.Load())
	}
}

func TestExecutor_SubmitAndAwait(t *testing.T) {
	e := executor.New(zap.NewNop())
	jobs := []executor.Job{
		func(ctx context.Context) error { return nil },
	}

	id, err := e.SubmitNotificationBatch(jobs, executor.DefaultOptions())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	results, err := e.Await(ctx, id)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestExecutor_ShutdownRefusesNewWork(t *testing.T) {
	e := executor.New(zap.NewNop())
	e.Shutdown(time.Second)

	_, err := e.ExecuteBatch(context.Background(), nil, executor.DefaultOptions())
	if err == nil {
		t.Fatal("expected shutdown to refuse new work")
	}

	_, err = e.SubmitNotificationBatch(nil, executor.DefaultOptions())
	if err == nil {
		t.Fatal("expected shutdown to refuse new submissions")
	}
}
