package apikey

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

// Service manages a Fiduciary's API keys. Lifecycle: created → active
// ⇄ revoked (reversible) → permanently deleted (terminal). The local
// guards reject obviously invalid transitions before dispatch; the
// backend remains the authority, so a stale local view still surfaces
// the server's rejection as a recoverable error.
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

func (s *Service) List(ctx context.Context, params query.ListParams) (*query.Page[APIKey], error) {
	params = params.Normalize()
	key := params.CacheKey(query.ResourceAPIKeys)

	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*query.Page[APIKey], error) {
		var raw json.RawMessage
		if err := s.api.Get(ctx, "/api-keys", params.Values(), &raw); err != nil {
			s.logger.Error("failed to fetch api keys", "error", err)
			return nil, err
		}
		return query.DecodePage[APIKey](raw)
	})
}

// Create mints a new key. The returned secret is shown once and never
// stored client-side.
func (s *Service) Create(ctx context.Context, dto CreateKeyDTO) (*CreatedKey, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	var created CreatedKey
	if err := s.api.Post(ctx, "/api-keys", dto, &created); err != nil {
		s.logger.Error("failed to create api key", "key_name", dto.KeyName, "error", err)
		s.bus.Failure(query.ResourceAPIKeys, transport.MessageOr(err, "failed to create API key"))
		return nil, err
	}

	s.logger.Info("api key created", "key_id", created.ID, "environment", created.Environment)
	s.cache.Invalidate(query.ResourceAPIKeys)
	s.bus.Success(query.ResourceAPIKeys, "API key created")
	return &created, nil
}

// Revoke deactivates an active key. Reversible via Reactivate.
func (s *Service) Revoke(ctx context.Context, key APIKey) error {
	if !key.IsActive() {
		return internal.NewInvalidTransitionError("only an active key can be revoked", internal.ErrCodeKeyNotActive)
	}
	return s.statusMutation(ctx, key.ID, "revoke", "API key revoked")
}

// Reactivate restores a revoked key.
func (s *Service) Reactivate(ctx context.Context, key APIKey) error {
	if !key.IsRevoked() {
		return internal.NewInvalidTransitionError("only a revoked key can be reactivated", internal.ErrCodeKeyNotRevoked)
	}
	return s.statusMutation(ctx, key.ID, "reactivate", "API key reactivated")
}

func (s *Service) statusMutation(ctx context.Context, keyID int64, action, successMsg string) error {
	path := fmt.Sprintf("/api-keys/%d/%s", keyID, action)
	if err := s.api.Put(ctx, path, nil, nil); err != nil {
		s.logger.Error("api key mutation failed", "key_id", keyID, "action", action, "error", err)
		s.bus.Failure(query.ResourceAPIKeys, transport.MessageOr(err, "failed to update API key"))
		return err
	}

	s.logger.Info("api key updated", "key_id", keyID, "action", action)
	s.cache.Invalidate(query.ResourceAPIKeys)
	s.bus.Success(query.ResourceAPIKeys, successMsg)
	return nil
}

// PermanentDelete removes the key irreversibly. Requires explicit
// confirmation; any later revoke/reactivate against the id must come
// back NotFound from the backend, never silently succeed.
func (s *Service) PermanentDelete(ctx context.Context, keyID int64, confirmed bool) error {
	if !confirmed {
		return internal.ErrConfirmationRequired
	}

	path := fmt.Sprintf("/api-keys/%d/permanent", keyID)
	if err := s.api.Delete(ctx, path, nil, nil); err != nil {
		s.logger.Error("api key permanent delete failed", "key_id", keyID, "error", err)
		s.bus.Failure(query.ResourceAPIKeys, transport.MessageOr(err, "failed to delete API key"))
		return err
	}

	s.logger.Info("api key permanently deleted", "key_id", keyID)
	s.cache.Invalidate(query.ResourceAPIKeys)
	s.bus.Success(query.ResourceAPIKeys, "API key deleted")
	return nil
}
