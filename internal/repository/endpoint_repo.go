package repository

import (
	"context"

	"github.com/vientofactory/lawcast-backend/internal/domain"
)

// EndpointRepository defines all persistence operations for subscriber
// endpoints (§4.A). The pgx implementation is in pg_endpoint_repo.go; tests
// use a hand-written in-memory mock (mock_endpoint_repo.go).
type EndpointRepository interface {
	CreateOrReactivate(ctx context.Context, rawURL string) (*domain.Endpoint, error)
	FindActive(ctx context.Context) ([]*domain.Endpoint, error)
	FindByID(ctx context.Context, id int64) (*domain.Endpoint, error)
	FindByURL(ctx context.Context, rawURL string) (*domain.Endpoint, error)
	Deactivate(ctx context.Context, id int64) error
	DeletePermanent(ctx context.Context, ids []int64) (int, error)
	CleanupOlderInactive(ctx context.Context, ageDays int) (int, error)
	Stats(ctx context.Context) (domain.EndpointStats, error)
	BulkCreate(ctx context.Context, urls []string) (domain.BulkCreateResult, error)
}
