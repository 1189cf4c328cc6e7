package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/consent-management/internal"
	"github.com/frahmantamala/consent-management/internal/core/events"
	"github.com/frahmantamala/consent-management/internal/query"
	"github.com/frahmantamala/consent-management/internal/transport"
)

type Service struct {
	api    transport.API
	cache  *query.Cache
	bus    *events.Bus
	logger *slog.Logger
}

func NewService(api transport.API, cache *query.Cache, bus *events.Bus, logger *slog.Logger) *Service {
	return &Service{
		api:    api,
		cache:  cache,
		bus:    bus,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context, params query.ListParams) (*query.Page[Webhook], error) {
	params = params.Normalize()
	key := params.CacheKey(query.ResourceWebhooks)

	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*query.Page[Webhook], error) {
		var raw json.RawMessage
		if err := s.api.Get(ctx, "/webhooks", params.Values(), &raw); err != nil {
			s.logger.Error("failed to fetch webhooks", "error", err)
			return nil, err
		}
		return query.DecodePage[Webhook](raw)
	})
}

// Create registers a new endpoint. The https requirement is validated
// locally and never reaches the network when violated.
func (s *Service) Create(ctx context.Context, dto CreateWebhookDTO) (*Webhook, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidWebhookURL)
	}

	var created Webhook
	if err := s.api.Post(ctx, "/webhooks", dto, &created); err != nil {
		s.logger.Error("failed to create webhook", "url", dto.URL, "error", err)
		s.bus.Failure(query.ResourceWebhooks, transport.MessageOr(err, "failed to create webhook"))
		return nil, err
	}

	s.logger.Info("webhook created", "webhook_id", created.ID, "url", created.URL)
	s.cache.Invalidate(query.ResourceWebhooks)
	s.bus.Success(query.ResourceWebhooks, "webhook created")
	return &created, nil
}

// ToggleStatus flips Active/Inactive; the toggle is reversible.
func (s *Service) ToggleStatus(ctx context.Context, webhookID int64, status string) error {
	dto := ToggleStatusDTO{Status: status}
	if err := dto.Validate(); err != nil {
		return internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	path := fmt.Sprintf("/webhooks/%d/status", webhookID)
	if err := s.api.Put(ctx, path, dto, nil); err != nil {
		s.logger.Error("failed to toggle webhook", "webhook_id", webhookID, "error", err)
		s.bus.Failure(query.ResourceWebhooks, transport.MessageOr(err, "failed to update webhook"))
		return err
	}

	s.cache.Invalidate(query.ResourceWebhooks)
	s.bus.Success(query.ResourceWebhooks, "webhook status updated")
	return nil
}

// Delete removes the endpoint after explicit confirmation.
func (s *Service) Delete(ctx context.Context, webhookID int64, confirmed bool) error {
	if !confirmed {
		return internal.ErrConfirmationRequired
	}

	path := fmt.Sprintf("/webhooks/%d", webhookID)
	if err := s.api.Delete(ctx, path, nil, nil); err != nil {
		s.logger.Error("failed to delete webhook", "webhook_id", webhookID, "error", err)
		s.bus.Failure(query.ResourceWebhooks, transport.MessageOr(err, "failed to delete webhook"))
		return err
	}

	s.logger.Info("webhook deleted", "webhook_id", webhookID)
	s.cache.Invalidate(query.ResourceWebhooks)
	s.bus.Success(query.ResourceWebhooks, "webhook deleted")
	return nil
}
