package repository

import (
	"context"
	"sync"
	"time"

	"github.com/vientofactory/lawcast-backend/internal/domain"
)

// MockEndpointRepository is a hand-written, in-memory implementation of
// EndpointRepository used in unit tests. No mock-generation library needed.
type MockEndpointRepository struct {
	mu       sync.RWMutex
	nextID   int64
	byID     map[int64]*domain.Endpoint
	byURL    map[string]int64

	// Optional error overrides — set in tests to simulate failure paths.
	CreateOrReactivateErr error
	StatsErr              error
}

func NewMockEndpointRepository() *MockEndpointRepository {
	return &MockEndpointRepository{
		byID:  make(map[int64]*domain.Endpoint),
		byURL: make(map[string]int64),
	}
}

func (m *MockEndpointRepository) CreateOrReactivate(_ context.Context, rawURL string) (*domain.Endpoint, error) {
	if m.CreateOrReactivateErr != nil {
		return nil, m.CreateOrReactivateErr
	}
	canonical := Canonicalize(rawURL)

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byURL[canonical]; ok {
		e := m.byID[id]
		e.Active = true
		e.UpdatedAt = time.Now().UTC()
		clone := *e
		return &clone, nil
	}

	m.nextID++
	now := time.Now().UTC()
	e := &domain.Endpoint{
		ID:        m.nextID,
		URL:       canonical,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.byID[e.ID] = e
	m.byURL[canonical] = e.ID
	clone := *e
	return &clone, nil
}

func (m *MockEndpointRepository) FindActive(_ context.Context) ([]*domain.Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Endpoint
	for _, e := range m.byID {
		if e.Active {
			clone := *e
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *MockEndpointRepository) FindByID(_ context.Context, id int64) (*domain.Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *e
	return &clone, nil
}

func (m *MockEndpointRepository) FindByURL(_ context.Context, rawURL string) (*domain.Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byURL[Canonicalize(rawURL)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *m.byID[id]
	return &clone, nil
}

func (m *MockEndpointRepository) Deactivate(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Active = false
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockEndpointRepository) DeletePermanent(_ context.Context, ids []int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := 0
	for _, id := range ids {
		e, ok := m.byID[id]
		if !ok {
			continue
		}
		delete(m.byURL, e.URL)
		delete(m.byID, id)
		deleted++
	}
	return deleted, nil
}

func (m *MockEndpointRepository) CleanupOlderInactive(_ context.Context, ageDays int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().UTC().AddDate(0, 0, -ageDays)
	deleted := 0
	for id, e := range m.byID {
		if !e.Active && e.UpdatedAt.Before(cutoff) {
			delete(m.byURL, e.URL)
			delete(m.byID, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MockEndpointRepository) Stats(_ context.Context) (domain.EndpointStats, error) {
	if m.StatsErr != nil {
		return domain.EndpointStats{}, m.StatsErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s domain.EndpointStats
	now := time.Now().UTC()
	for _, e := range m.byID {
		s.Total++
		if e.Active {
			s.Active++
			continue
		}
		s.Inactive++
		if e.UpdatedAt.Before(now.AddDate(0, 0, -30)) {
			s.OldInactive++
		}
		if e.UpdatedAt.After(now.AddDate(0, 0, -7)) {
			s.RecentInactive++
		}
	}

	if s.Total == 0 {
		s.Efficiency = 100
	} else {
		s.Efficiency = float64(s.Active) / float64(s.Total) * 100
	}
	return s, nil
}

func (m *MockEndpointRepository) BulkCreate(ctx context.Context, urls []string) (domain.BulkCreateResult, error) {
	var result domain.BulkCreateResult
	seen := make(map[string]struct{}, len(urls))
	for _, raw := range urls {
		canonical := Canonicalize(raw)
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}

		m.mu.RLock()
		id, exists := m.byURL[canonical]
		var wasActive bool
		if exists {
			wasActive = m.byID[id].Active
		}
		m.mu.RUnlock()

		if exists && wasActive {
			result.Duplicates++
			continue
		}
		if _, err := m.CreateOrReactivate(ctx, canonical); err != nil {
			return result, err
		}
		if exists {
			result.Reactivated++
		} else {
			result.Created++
		}
	}
	return result, nil
}
