package executor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vientofactory/lawcast-backend/internal/domain"
)

// inFlight tracks one submitted batch's completion future.
type inFlight struct {
	done    chan struct{}
	results []JobResult
}

// Executor runs batches of jobs with a bounded-concurrency, retry/timeout
// contract and tracks non-blocking submissions in an in-flight job table
// (§4.E). Safe for concurrent use.
type Executor struct {
	mu           sync.Mutex
	jobs         map[string]*inFlight
	shuttingDown bool
	logger       *zap.Logger

	onInFlightChange func(count int)
}

func New(logger *zap.Logger) *Executor {
	return &Executor{
		jobs:             make(map[string]*inFlight),
		logger:           logger,
		onInFlightChange: func(int) {},
	}
}

// SetInFlightHook wires a callback invoked with the current size of the
// in-flight job table every time a batch is registered or reaped — backs
// the "dispatch_batches_in_flight" gauge without a dedicated polling loop.
func (e *Executor) SetInFlightHook(fn func(count int)) {
	if fn != nil {
		e.onInFlightChange = fn
	}
}

// ExecuteBatch runs jobs to completion and returns per-job results in
// submission order. Refuses new work once Shutdown has been called.
func (e *Executor) ExecuteBatch(ctx context.Context, jobs []Job, opts Options) ([]JobResult, error) {
	if e.isShuttingDown() {
		return nil, domain.ErrShuttingDown
	}
	return executeBatch(ctx, jobs, opts), nil
}

// SubmitNotificationBatch registers an in-flight future and runs jobs in the
// background, returning immediately with a job id. The background run uses
// context.Background() rather than the caller's ctx — the point of
// "non-blocking" is that the batch survives the caller's own request
// lifetime; only Shutdown's ceiling bounds it.
func (e *Executor) SubmitNotificationBatch(jobs []Job, opts Options) (string, error) {
	if e.isShuttingDown() {
		return "", domain.ErrShuttingDown
	}

	id := "notification_batch_" + uuid.New().String()
	job := &inFlight{done: make(chan struct{})}

	e.mu.Lock()
	e.jobs[id] = job
	count := len(e.jobs)
	e.mu.Unlock()
	e.onInFlightChange(count)

	go func() {
		results := executeBatch(context.Background(), jobs, opts)

		succeeded, failed := 0, 0
		for _, r := range results {
			if r.Success {
				succeeded++
			} else {
				failed++
			}
		}
		e.logger.Info("batch completed",
			zap.String("job_id", id),
			zap.Int("succeeded", succeeded),
			zap.Int("failed", failed),
		)

		job.results = results
		close(job.done)

		e.mu.Lock()
		delete(e.jobs, id)
		remaining := len(e.jobs)
		e.mu.Unlock()
		e.onInFlightChange(remaining)
	}()

	return id, nil
}

// Await blocks until jobID completes or ctx is cancelled. A jobID that is no
// longer tracked (already completed and reaped) returns ErrJobNotFound.
func (e *Executor) Await(ctx context.Context, jobID string) ([]JobResult, error) {
	e.mu.Lock()
	job, ok := e.jobs[jobID]
	e.mu.Unlock()
	if !ok {
		return nil, domain.ErrJobNotFound
	}

	select {
	case <-job.done:
		return job.results, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AwaitAll blocks until every currently tracked batch completes, or ctx is
// cancelled.
func (e *Executor) AwaitAll(ctx context.Context) error {
	e.mu.Lock()
	pending := make([]*inFlight, 0, len(e.jobs))
	for _, j := range e.jobs {
		pending = append(pending, j)
	}
	e.mu.Unlock()

	for _, j := range pending {
		select {
		case <-j.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Status reports how many batches are currently in flight (§6 GET /batch/status).
func (e *Executor) Status() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return map[string]int{"inFlight": len(e.jobs)}
}

func (e *Executor) isShuttingDown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shuttingDown
}

// Shutdown refuses new work and awaits in-flight batches up to ceiling. On
// timeout, it logs and force-clears the job table rather than blocking
// process exit indefinitely (§4.I).
func (e *Executor) Shutdown(ceiling time.Duration) {
	e.mu.Lock()
	e.shuttingDown = true
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), ceiling)
	defer cancel()

	if err := e.AwaitAll(ctx); err != nil {
		e.logger.Warn("shutdown ceiling reached, force-clearing in-flight batches", zap.Error(err))
		e.mu.Lock()
		e.jobs = make(map[string]*inFlight)
		e.mu.Unlock()
	}
}
