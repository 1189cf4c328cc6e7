package purpose

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

func (s *Service) List(ctx context.Context, params query.ListParams) (*query.Page[PurposeCode], error) {
	params = params.Normalize()
	key := params.CacheKey(query.ResourcePurposes)

	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*query.Page[PurposeCode], error) {
		var raw json.RawMessage
		if err := s.api.Get(ctx, "/purpose-cards", params.Values(), &raw); err != nil {
			s.logger.Error("failed to fetch purpose codes", "error", err)
			return nil, err
		}
		return query.DecodePage[PurposeCode](raw)
	})
}

// Create adds a purpose code. Note the singular path: the create
// endpoint is /purpose-card while listing is /purpose-cards.
func (s *Service) Create(ctx context.Context, dto CreatePurposeDTO) (*PurposeCode, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidPurposeCode)
	}

	var created PurposeCode
	if err := s.api.Post(ctx, "/purpose-card", dto, &created); err != nil {
		s.logger.Error("failed to create purpose code", "code", dto.Code, "error", err)
		s.bus.Failure(query.ResourcePurposes, transport.MessageOr(err, "failed to create purpose code"))
		return nil, err
	}

	s.logger.Info("purpose code created", "purpose_id", created.ID, "code", created.Code)
	s.cache.Invalidate(query.ResourcePurposes)
	s.bus.Success(query.ResourcePurposes, "purpose code created")
	return &created, nil
}

// Delete permanently removes a purpose code after confirmation.
func (s *Service) Delete(ctx context.Context, purposeID int64, confirmed bool) error {
	if !confirmed {
		return internal.ErrConfirmationRequired
	}

	path := fmt.Sprintf("/purpose-cards/%d", purposeID)
	if err := s.api.Delete(ctx, path, nil, nil); err != nil {
		s.logger.Error("failed to delete purpose code", "purpose_id", purposeID, "error", err)
		s.bus.Failure(query.ResourcePurposes, transport.MessageOr(err, "failed to delete purpose code"))
		return err
	}

	s.logger.Info("purpose code deleted", "purpose_id", purposeID)
	s.cache.Invalidate(query.ResourcePurposes)
	s.bus.Success(query.ResourcePurposes, "purpose code deleted")
	return nil
}
