package crawler_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vientofactory/lawcast-backend/internal/cache"
	"github.com/vientofactory/lawcast-backend/internal/crawler"
	"github.com/vientofactory/lawcast-backend/internal/delivery"
	"github.com/vientofactory/lawcast-backend/internal/dispatch"
	"github.com/vientofactory/lawcast-backend/internal/domain"
	"github.com/vientofactory/lawcast-backend/internal/executor"
	"github.com/vientofactory/lawcast-backend/internal/ratelimiter"
	"github.com/vientofactory/lawcast-backend/internal/repository"
)

type stubCrawler struct {
	mu      sync.Mutex
	notices []domain.Notice
	err     error
	calls   atomic.Int32
}

func (s *stubCrawler) FetchLatest(ctx context.Context) ([]domain.Notice, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Notice(nil), s.notices...), nil
}

func newScheduler(t *testing.T, c crawler.Crawler) (*crawler.Scheduler, *cache.RecencyCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	recency := cache.New(client, "lawcast:")
	repo := repository.NewMockEndpointRepository()
	limiter := ratelimiter.New(client, "lawcast:", zap.NewNop())
	dc := delivery.NewClient(time.Second)
	coord := dispatch.New(repo, dc, limiter, 0, time.Millisecond, zap.NewNop())
	ex := executor.New(zap.NewNop())

	return crawler.New(c, recency, coord, ex, executor.DefaultOptions(), zap.NewNop()), recency
}

func TestScheduler_InitializeCacheSeedsFromFirstCrawl(t *testing.T) {
	stub := &stubCrawler{notices: []domain.Notice{{Num: 1}, {Num: 2}}}
	s, recency := newScheduler(t, stub)

	s.InitializeCache(context.Background())

	meta, err := recency.Meta(context.Background())
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if !meta.IsInitialized || meta.Size != 2 {
		t.Fatalf("expected initialized cache with 2 notices, got %+v", meta)
	}
}

func TestScheduler_InitializeCacheReturnsOnCrawlFailure(t *testing.T) {
	stub := &stubCrawler{err: context.DeadlineExceeded}
	s, _ := newScheduler(t, stub)

	// Must not panic or hang even though the first crawl fails.
	done := make(chan struct{})
	go func() {
		s.InitializeCache(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("InitializeCache did not return after crawl failure")
	}
}
