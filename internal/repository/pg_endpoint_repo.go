package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vientofactory/lawcast-backend/internal/domain"
)

const (
	deleteChunkSize  = 500
	cleanupChunkSize = 1000
)

type pgEndpointRepository struct {
	pool *pgxpool.Pool
}

// NewPgEndpointRepository returns an EndpointRepository backed by PostgreSQL.
func NewPgEndpointRepository(pool *pgxpool.Pool) EndpointRepository {
	return &pgEndpointRepository{pool: pool}
}

// CreateOrReactivate canonicalizes url, then performs an atomic upsert:
// insert a new active row, or flip an existing inactive row back to active.
// An already-active row goes through the conflict UPDATE with its values
// unchanged (updated_at is kept), so two concurrent calls for the same
// canonical URL converge to exactly one active row.
func (r *pgEndpointRepository) CreateOrReactivate(ctx context.Context, rawURL string) (*domain.Endpoint, error) {
	canonical := Canonicalize(rawURL)

	row := r.pool.QueryRow(ctx, `
		INSERT INTO webhooks (url, is_active, created_at, updated_at)
		VALUES ($1, true, now(), now())
		ON CONFLICT (url) DO UPDATE
			SET is_active = true,
			    updated_at = CASE WHEN webhooks.is_active THEN webhooks.updated_at ELSE now() END
		RETURNING id, url, is_active, COALESCE(description, ''), created_at, updated_at`,
		canonical,
	)

	return scanEndpoint(row)
}

func (r *pgEndpointRepository) FindActive(ctx context.Context) ([]*domain.Endpoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, url, is_active, COALESCE(description, ''), created_at, updated_at
		FROM webhooks WHERE is_active = true ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("find active endpoints: %w", err)
	}
	defer rows.Close()
	return scanEndpoints(rows)
}

func (r *pgEndpointRepository) FindByID(ctx context.Context, id int64) (*domain.Endpoint, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, url, is_active, COALESCE(description, ''), created_at, updated_at
		FROM webhooks WHERE id = $1`, id)
	n, err := scanEndpoint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return n, err
}

func (r *pgEndpointRepository) FindByURL(ctx context.Context, rawURL string) (*domain.Endpoint, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, url, is_active, COALESCE(description, ''), created_at, updated_at
		FROM webhooks WHERE url = $1`, Canonicalize(rawURL))
	n, err := scanEndpoint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return n, err
}

func (r *pgEndpointRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE webhooks SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate endpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeletePermanent physically removes rows, chunked to bound transaction size (§4.A).
func (r *pgEndpointRepository) DeletePermanent(ctx context.Context, ids []int64) (int, error) {
	deleted := 0
	for start := 0; start < len(ids); start += deleteChunkSize {
		end := start + deleteChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		tag, err := r.pool.Exec(ctx, `DELETE FROM webhooks WHERE id = ANY($1)`, ids[start:end])
		if err != nil {
			return deleted, fmt.Errorf("delete endpoints: %w", err)
		}
		deleted += int(tag.RowsAffected())
	}
	return deleted, nil
}

// CleanupOlderInactive selects ids in chunks of cleanupChunkSize then deletes
// them, looping until a chunk comes back short of the limit (exhausted).
func (r *pgEndpointRepository) CleanupOlderInactive(ctx context.Context, ageDays int) (int, error) {
	total := 0
	for {
		rows, err := r.pool.Query(ctx, `
			SELECT id FROM webhooks
			WHERE is_active = false AND updated_at < now() - ($1 || ' days')::interval
			LIMIT $2`, ageDays, cleanupChunkSize)
		if err != nil {
			return total, fmt.Errorf("select older inactive: %w", err)
		}

		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return total, fmt.Errorf("scan older inactive id: %w", err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return total, err
		}

		if len(ids) == 0 {
			return total, nil
		}

		tag, err := r.pool.Exec(ctx, `DELETE FROM webhooks WHERE id = ANY($1)`, ids)
		if err != nil {
			return total, fmt.Errorf("delete older inactive: %w", err)
		}
		total += int(tag.RowsAffected())

		if len(ids) < cleanupChunkSize {
			return total, nil
		}
	}
}

func (r *pgEndpointRepository) Stats(ctx context.Context) (domain.EndpointStats, error) {
	var s domain.EndpointStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE is_active) AS active,
			COUNT(*) FILTER (WHERE NOT is_active) AS inactive,
			COUNT(*) FILTER (WHERE NOT is_active AND updated_at < now() - interval '30 days') AS old_inactive,
			COUNT(*) FILTER (WHERE NOT is_active AND updated_at > now() - interval '7 days') AS recent_inactive
		FROM webhooks`).Scan(&s.Total, &s.Active, &s.Inactive, &s.OldInactive, &s.RecentInactive)
	if err != nil {
		return s, fmt.Errorf("endpoint stats: %w", err)
	}

	if s.Total == 0 {
		s.Efficiency = 100
	} else {
		s.Efficiency = float64(s.Active) / float64(s.Total) * 100
	}
	return s, nil
}

// BulkCreate deduplicates canonicalized URLs and creates-or-reactivates each,
// classifying the outcome into created/reactivated/duplicates (§4.A). A
// "duplicate" is a URL that was already active before this call.
func (r *pgEndpointRepository) BulkCreate(ctx context.Context, urls []string) (domain.BulkCreateResult, error) {
	var result domain.BulkCreateResult

	seen := make(map[string]struct{}, len(urls))
	for _, raw := range urls {
		canonical := Canonicalize(raw)
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}

		existing, err := r.FindByURL(ctx, canonical)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			if _, err := r.CreateOrReactivate(ctx, canonical); err != nil {
				return result, fmt.Errorf("bulk create %q: %w", canonical, err)
			}
			result.Created++
		case err != nil:
			return result, fmt.Errorf("bulk lookup %q: %w", canonical, err)
		case existing.Active:
			result.Duplicates++
		default:
			if _, err := r.CreateOrReactivate(ctx, canonical); err != nil {
				return result, fmt.Errorf("bulk reactivate %q: %w", canonical, err)
			}
			result.Reactivated++
		}
	}

	return result, nil
}

// ---- helpers ----

func scanEndpoint(row pgx.Row) (*domain.Endpoint, error) {
	var e domain.Endpoint
	if err := row.Scan(&e.ID, &e.URL, &e.Active, &e.Description, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEndpoints(rows pgx.Rows) ([]*domain.Endpoint, error) {
	var result []*domain.Endpoint
	for rows.Next() {
		e, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
