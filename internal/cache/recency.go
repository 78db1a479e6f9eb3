package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vientofactory/lawcast-backend/internal/domain"
)

// MaxSize bounds how many notices the recency cache retains, oldest dropped.
const MaxSize = 50

// RecencyCache tracks the most recently seen notices in a shared cache so the
// diff against a fresh crawl survives process restarts (§4.B). All mutating
// operations are serialized through a single mutex — the cache is one logical
// resource, not a per-key lock table.
type RecencyCache struct {
	mu      sync.Mutex
	client  *redis.Client
	prefix  string
	maxSize int

	loaded        bool
	notices       []domain.Notice
	ids           map[int64]struct{}
	isInitialized bool
	lastUpdated   *int64
}

func New(client *redis.Client, keyPrefix string) *RecencyCache {
	return &RecencyCache{
		client:  client,
		prefix:  keyPrefix,
		maxSize: MaxSize,
	}
}

func (c *RecencyCache) noticesKey() string { return c.prefix + "recent_notices" }
func (c *RecencyCache) infoKey() string     { return c.prefix + "cache_info" }

// ensureLoaded lazily hydrates in-memory state from the shared cache on first
// use (and after Clear). Callers must hold c.mu.
func (c *RecencyCache) ensureLoaded(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	raw, err := c.client.Get(ctx, c.noticesKey()).Result()
	switch {
	case err == redis.Nil:
		c.notices = nil
	case err != nil:
		return fmt.Errorf("load recent notices: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &c.notices); err != nil {
			return fmt.Errorf("decode recent notices: %w", err)
		}
	}

	info, err := c.client.HGetAll(ctx, c.infoKey()).Result()
	if err != nil {
		return fmt.Errorf("load cache info: %w", err)
	}
	c.isInitialized = info["isInitialized"] == "true"
	if v, ok := info["lastUpdated"]; ok && v != "" {
		var ms int64
		if _, err := fmt.Sscanf(v, "%d", &ms); err == nil {
			c.lastUpdated = &ms
		}
	}

	c.rebuildIDs()
	c.loaded = true
	return nil
}

func (c *RecencyCache) rebuildIDs() {
	c.ids = make(map[int64]struct{}, len(c.notices))
	for _, n := range c.notices {
		c.ids[n.Num] = struct{}{}
	}
}

// Initialize seeds the cache from a first crawl. If the shared cache already
// holds notices (a restart against a warm cache), it is never overwritten —
// only the isInitialized flag and meta are refreshed.
func (c *RecencyCache) Initialize(ctx context.Context, notices []domain.Notice) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}

	if len(c.notices) > 0 {
		c.isInitialized = true
		return c.persistInfo(ctx)
	}

	sorted := append([]domain.Notice(nil), notices...)
	sortDescByNum(sorted)
	if len(sorted) > c.maxSize {
		sorted = sorted[:c.maxSize]
	}

	c.notices = sorted
	c.rebuildIDs()
	c.isInitialized = true
	c.touch()

	if err := c.persistNotices(ctx); err != nil {
		return err
	}
	return c.persistInfo(ctx)
}

// FindNew returns the items in crawled not already present in the cache. If
// the cache has not been marked initialized but persisted notices exist (a
// cold start against a warm shared cache), it reconstructs ids from those
// notices and marks itself initialized before diffing — the restart-safe path.
func (c *RecencyCache) FindNew(ctx context.Context, crawled []domain.Notice) ([]domain.Notice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		// Degrade to treating everything as new rather than silently dropping.
		return crawled, err
	}

	if !c.isInitialized && len(c.notices) > 0 {
		c.rebuildIDs()
		c.isInitialized = true
		_ = c.persistInfo(ctx)
	}

	var fresh []domain.Notice
	for _, n := range crawled {
		if _, seen := c.ids[n.Num]; !seen {
			fresh = append(fresh, n)
		}
	}
	return fresh, nil
}

// Update merges the new items from crawled into the cache, re-sorts
// descending by num, and truncates to maxSize. A no-op if nothing is new,
// except it still must run so ordering stays fresh per a subsequent call —
// callers invoke Update unconditionally even when FindNew returned empty.
func (c *RecencyCache) Update(ctx context.Context, crawled []domain.Notice) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}

	var fresh []domain.Notice
	for _, n := range crawled {
		if _, seen := c.ids[n.Num]; !seen {
			fresh = append(fresh, n)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	merged := append(fresh, c.notices...)
	sortDescByNum(merged)
	if len(merged) > c.maxSize {
		merged = merged[:c.maxSize]
	}

	c.notices = merged
	c.rebuildIDs()
	c.isInitialized = true
	c.touch()

	if err := c.persistNotices(ctx); err != nil {
		return err
	}
	return c.persistInfo(ctx)
}

// Recent returns the prefix of cached notices of length min(limit, maxSize).
func (c *RecencyCache) Recent(ctx context.Context, limit int) ([]domain.Notice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	n := limit
	if n > c.maxSize {
		n = c.maxSize
	}
	if n > len(c.notices) {
		n = len(c.notices)
	}
	if n < 0 {
		n = 0
	}

	result := make([]domain.Notice, n)
	copy(result, c.notices[:n])
	return result, nil
}

// Meta reports the current cache size, freshness, and readiness (§6 GET /stats).
func (c *RecencyCache) Meta(ctx context.Context) (domain.CacheMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return domain.CacheMeta{}, err
	}

	return domain.CacheMeta{
		Size:          len(c.notices),
		LastUpdated:   c.lastUpdated,
		MaxSize:       c.maxSize,
		IsInitialized: c.isInitialized,
	}, nil
}

// Clear removes all cache keys and resets state to empty/uninitialized.
func (c *RecencyCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.Del(ctx, c.noticesKey(), c.infoKey()).Err(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	c.notices = nil
	c.ids = nil
	c.isInitialized = false
	c.lastUpdated = nil
	c.loaded = true
	return nil
}

func (c *RecencyCache) touch() {
	ms := time.Now().UTC().UnixMilli()
	c.lastUpdated = &ms
}

func (c *RecencyCache) persistNotices(ctx context.Context) error {
	body, err := json.Marshal(c.notices)
	if err != nil {
		return fmt.Errorf("encode recent notices: %w", err)
	}
	if err := c.client.Set(ctx, c.noticesKey(), body, 0).Err(); err != nil {
		return fmt.Errorf("store recent notices: %w", err)
	}
	return nil
}

func (c *RecencyCache) persistInfo(ctx context.Context) error {
	fields := map[string]any{
		"size":          len(c.notices),
		"isInitialized": c.isInitialized,
		"maxSize":       c.maxSize,
	}
	if c.lastUpdated != nil {
		fields["lastUpdated"] = *c.lastUpdated
	}
	if err := c.client.HSet(ctx, c.infoKey(), fields).Err(); err != nil {
		return fmt.Errorf("store cache info: %w", err)
	}
	return nil
}

func sortDescByNum(notices []domain.Notice) {
	sort.Slice(notices, func(i, j int) bool { return notices[i].Num > notices[j].Num })
}
