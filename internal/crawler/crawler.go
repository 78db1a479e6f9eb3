// Package crawler polls the upstream notice index and drives the periodic
// crawl → diff → dispatch → cache-update cycle (§4.G).
package crawler

import (
	"context"

	"github.com/vientofactory/lawcast-backend/internal/domain"
)

// Crawler fetches the current set of published notices from the upstream
// source. Implementations may return an error on timeout or network failure;
// the scheduler treats that as recoverable and simply skips the tick.
type Crawler interface {
	FetchLatest(ctx context.Context) ([]domain.Notice, error)
}
