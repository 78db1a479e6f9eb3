// Package service coordinates the repository and its external collaborators
// for the single business operation the HTTP surface exposes beyond plain
// reads: registering a new webhook subscription (§6 POST /webhooks).
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vientofactory/lawcast-backend/internal/delivery"
	"github.com/vientofactory/lawcast-backend/internal/domain"
	"github.com/vientofactory/lawcast-backend/internal/repository"
	"github.com/vientofactory/lawcast-backend/internal/verification"
)

// WebhookService validates, verifies, quota-checks, and live-tests a new
// subscription before persisting it. All business rules live here; HTTP
// handlers depend on this service, not on the repository or delivery client
// directly.
type WebhookService struct {
	repo      repository.EndpointRepository
	verifier  verification.Verifier
	delivery  *delivery.Client
	maxActive int
	logger    *zap.Logger
}

func NewWebhookService(
	repo repository.EndpointRepository,
	verifier verification.Verifier,
	deliveryClient *delivery.Client,
	maxActive int,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		repo:      repo,
		verifier:  verifier,
		delivery:  deliveryClient,
		maxActive: maxActive,
		logger:    logger,
	}
}

// Register validates req's URL shape, verifies the human token, rejects an
// already-active duplicate or a full quota, live-tests delivery, and
// finally creates or reactivates the endpoint row.
func (s *WebhookService) Register(ctx context.Context, req domain.RegisterWebhookRequest) (*domain.Endpoint, error) {
	if err := domain.ValidateWebhookURL(req.URL); err != nil {
		return nil, err
	}

	verified, err := s.verifier.Verify(ctx, req.RecaptchaToken)
	if err != nil {
		return nil, fmt.Errorf("verification oracle: %w", err)
	}
	if !verified {
		return nil, domain.ErrVerificationFailed
	}

	existing, err := s.repo.FindByURL(ctx, req.URL)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup endpoint: %w", err)
	}
	if existing != nil && existing.Active {
		return nil, domain.ErrConflict
	}

	active, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active endpoints: %w", err)
	}
	if len(active) >= s.maxActive {
		return nil, domain.ErrQuotaExceeded
	}

	result := s.delivery.TestDelivery(ctx, req.URL)
	if !result.Success {
		s.logger.Warn("live delivery test failed", zap.String("category", string(result.Category)))
		return nil, &domain.DeliveryTestError{Category: result.Category}
	}

	return s.repo.CreateOrReactivate(ctx, req.URL)
}
