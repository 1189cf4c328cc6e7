package roles

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/frahmantamala/consent-management/internal"
	"github.com/frahmantamala/consent-management/internal/core/events"
	"github.com/frahmantamala/consent-management/internal/query"
	"github.com/frahmantamala/consent-management/internal/stats"
	"github.com/frahmantamala/consent-management/internal/transport"
)

// Service is the role-assignment registry client. It does NOT check
// the super-admin gate itself: visibility of the registry is the
// caller's responsibility, and the backend enforces authorization
// regardless.
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

// List fetches one page of users with their role assignments.
func (s *Service) List(ctx context.Context, params query.ListParams) (*query.Page[UserWithRoles], error) {
	params = params.Normalize()
	key := params.CacheKey(query.ResourceUsersWithRoles)

	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*query.Page[UserWithRoles], error) {
		var raw json.RawMessage
		if err := s.api.Get(ctx, "/users-with-roles", params.Values(), &raw); err != nil {
			s.logger.Error("failed to fetch users with roles", "error", err)
			return nil, err
		}
		return query.DecodePage[UserWithRoles](raw)
	})
}

// Assign submits a role assignment. Idempotency and duplicate handling
// are server-enforced; the client submits, awaits the outcome, and
// refetches the listing on success.
func (s *Service) Assign(ctx context.Context, email, role string) error {
	dto := AssignRoleDTO{Email: email, Role: role}
	if err := dto.Validate(); err != nil {
		return internal.NewValidationError(err.Error(), internal.ErrCodeInvalidRole)
	}

	if err := s.api.Post(ctx, "/assign-role", dto, nil); err != nil {
		s.logger.Error("role assignment failed", "email", email, "role", role, "error", err)
		s.bus.Failure(query.ResourceUsersWithRoles, transport.MessageOr(err, "failed to assign role"))
		return err
	}

	s.logger.Info("role assigned", "email", email, "role", role)
	s.cache.Invalidate(query.ResourceUsersWithRoles)
	s.bus.Success(query.ResourceUsersWithRoles, "role assigned")
	return nil
}

// Remove deletes one additional-role entry. The confirmation flag is
// the second step of the two-step flow; without it nothing is
// dispatched.
func (s *Service) Remove(ctx context.Context, email, role string, confirmed bool) error {
	if !confirmed {
		return internal.ErrConfirmationRequired
	}

	dto := RemoveRoleDTO{Email: email, Role: role}
	if err := dto.Validate(); err != nil {
		return internal.NewValidationError(err.Error(), internal.ErrCodeInvalidRole)
	}

	// /remove-role is a DELETE carrying a JSON body.
	if err := s.api.Delete(ctx, "/remove-role", dto, nil); err != nil {
		s.logger.Error("role removal failed", "email", email, "role", role, "error", err)
		s.bus.Failure(query.ResourceUsersWithRoles, transport.MessageOr(err, "failed to remove role"))
		return err
	}

	s.logger.Info("role removed", "email", email, "role", role)
	s.cache.Invalidate(query.ResourceUsersWithRoles)
	s.bus.Success(query.ResourceUsersWithRoles, "role removed")
	return nil
}

// Metrics fetches the platform-wide totals. Always server-supplied;
// never recomputed from a page.
func (s *Service) Metrics(ctx context.Context) (*stats.PlatformMetrics, error) {
	key := query.Key(query.ResourcePlatformMetrics)

	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*stats.PlatformMetrics, error) {
		var out struct {
			Data *stats.PlatformMetrics `json:"data"`
			stats.PlatformMetrics
		}
		if err := s.api.Get(ctx, "/platform-metrics", nil, &out); err != nil {
			s.logger.Error("failed to fetch platform metrics", "error", err)
			return nil, err
		}
		if out.Data != nil {
			return out.Data, nil
		}
		metrics := out.PlatformMetrics
		return &metrics, nil
	})
}
