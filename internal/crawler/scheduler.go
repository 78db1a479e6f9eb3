package crawler

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vientofactory/lawcast-backend/internal/cache"
	"github.com/vientofactory/lawcast-backend/internal/dispatch"
	"github.com/vientofactory/lawcast-backend/internal/executor"
)

// tickInterval is the fixed crawl cadence (§4.G).
const tickInterval = 10 * time.Minute

// Scheduler drives the periodic crawl → diff → dispatch → cache-update
// cycle. At most one tick runs at a time per process — isProcessing is a
// strict non-reentrant latch, not a mutex a tick waits on.
type Scheduler struct {
	crawler Crawler
	cache   *cache.RecencyCache
	coord   *dispatch.Coordinator
	ex      *executor.Executor
	opts    executor.Options
	logger  *zap.Logger

	isProcessing  atomic.Bool
	isInitialized atomic.Bool

	onCrawlCycle func()
	onCrawlError func()
	onCacheSize  func(size int)
}

func New(
	crawler Crawler,
	recency *cache.RecencyCache,
	coord *dispatch.Coordinator,
	ex *executor.Executor,
	opts executor.Options,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		crawler:      crawler,
		cache:        recency,
		coord:        coord,
		ex:           ex,
		opts:         opts,
		logger:       logger,
		onCrawlCycle: func() {},
		onCrawlError: func() {},
		onCacheSize:  func(int) {},
	}
}

// SetHooks wires the metric callbacks invoked on crawl completion
// (onCrawlCycle), crawl failure (onCrawlError), and after every cache
// update (onCacheSize, given the cache's new notice count). Any nil
// argument leaves that hook a no-op.
func (s *Scheduler) SetHooks(onCrawlCycle, onCrawlError func(), onCacheSize func(size int)) {
	if onCrawlCycle != nil {
		s.onCrawlCycle = onCrawlCycle
	}
	if onCrawlError != nil {
		s.onCrawlError = onCrawlError
	}
	if onCacheSize != nil {
		s.onCacheSize = onCacheSize
	}
}

// InitializeCache performs one crawl and seeds the recency cache. It never
// blocks startup forever — it attempts exactly once and returns — but unlike
// the source's ambiguous behavior, a failed first crawl leaves isInitialized
// false rather than forcing the scheduler ready: every subsequent Run tick
// retries initialization under the same non-reentrant latch until one
// crawl succeeds, which is the self-healing path spec §9's open question
// asks for.
func (s *Scheduler) InitializeCache(ctx context.Context) {
	if !s.isProcessing.CompareAndSwap(false, true) {
		return
	}
	defer s.isProcessing.Store(false)
	s.attemptInitialize(ctx)
}

func (s *Scheduler) attemptInitialize(ctx context.Context) {
	notices, err := s.crawler.FetchLatest(ctx)
	if err != nil {
		s.logger.Error("initial crawl failed, cache stays uninitialized; will retry next tick", zap.Error(err))
		return
	}

	if err := s.cache.Initialize(ctx, notices); err != nil {
		s.logger.Error("failed to seed recency cache", zap.Error(err))
		return
	}
	s.isInitialized.Store(true)
	s.logger.Info("recency cache initialized")
}

// Run ticks every 10 minutes until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	s.logger.Info("crawl scheduler started", zap.Duration("interval", tickInterval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("crawl scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.isProcessing.CompareAndSwap(false, true) {
		s.logger.Debug("crawl tick skipped: previous tick still running")
		return
	}
	defer s.isProcessing.Store(false)

	if !s.isInitialized.Load() {
		s.attemptInitialize(ctx)
		return
	}

	crawled, err := s.crawler.FetchLatest(ctx)
	if err != nil {
		s.onCrawlError()
		s.logger.Warn("crawl failed, skipping tick", zap.Error(err))
		return
	}
	s.onCrawlCycle()
	if len(crawled) == 0 {
		s.logger.Warn("crawl returned no data")
		return
	}

	newNotices, err := s.cache.FindNew(ctx, crawled)
	if err != nil {
		s.logger.Warn("recency cache degraded during diff", zap.Error(err))
	}

	if len(newNotices) > 0 {
		if _, err := s.coord.DispatchBatch(ctx, newNotices, s.ex, s.opts); err != nil {
			s.logger.Error("dispatch batch failed", zap.Error(err))
		}
	}

	// cache.update must run whether or not there was new data, and even if
	// dispatch failed, so the next tick does not re-fire on the same notices.
	if err := s.cache.Update(ctx, crawled); err != nil {
		s.logger.Error("failed to update recency cache", zap.Error(err))
		return
	}

	if meta, err := s.cache.Meta(ctx); err == nil {
		s.onCacheSize(meta.Size)
	}
}
