package user

import (
	"context"
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

func (s *Service) Profile(ctx context.Context) (*Profile, error) {
	key := query.Key(query.ResourceProfile)

	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*Profile, error) {
		var profile Profile
		if err := s.api.Get(ctx, "/user-profile", nil, &profile); err != nil {
			s.logger.Error("failed to fetch profile", "error", err)
			return nil, err
		}
		return &profile, nil
	})
}

func (s *Service) UpdateProfile(ctx context.Context, dto UpdateProfileDTO) (*Profile, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	var updated Profile
	if err := s.api.Put(ctx, "/user-profile", dto, &updated); err != nil {
		s.logger.Error("failed to update profile", "error", err)
		s.bus.Failure(query.ResourceProfile, transport.MessageOr(err, "failed to update profile"))
		return nil, err
	}

	s.logger.Info("profile updated", "user_id", updated.ID)
	s.cache.Invalidate(query.ResourceProfile)
	s.bus.Success(query.ResourceProfile, "profile updated")
	return &updated, nil
}
