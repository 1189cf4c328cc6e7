package consent

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

// Service drives the consent lifecycle from both sides: User-facing
// accept/reject and the Fiduciary-side administrative override. All
// reads go through the shared cache; all mutations invalidate, never
// patch.
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

// UserConsents fetches one page of the signed-in User's consents.
func (s *Service) UserConsents(ctx context.Context, params query.ListParams) (*query.Page[Consent], error) {
	params = params.Normalize()
	key := params.CacheKey(query.ResourceUserConsents)

	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*query.Page[Consent], error) {
		var raw json.RawMessage
		if err := s.api.Get(ctx, "/user-consents", params.Values(), &raw); err != nil {
			s.logger.Error("failed to fetch user consents", "error", err)
			return nil, err
		}
		return query.DecodePage[Consent](raw)
	})
}

// ConsentRequests fetches one page of the consents a Fiduciary has
// requested (the fiduciary dashboard view).
func (s *Service) ConsentRequests(ctx context.Context, params query.ListParams) (*query.Page[Consent], error) {
	params = params.Normalize()
	key := params.CacheKey(query.ResourceConsentRequests)

	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*query.Page[Consent], error) {
		var raw json.RawMessage
		if err := s.api.Get(ctx, "/my-consent-requests", params.Values(), &raw); err != nil {
			s.logger.Error("failed to fetch consent requests", "error", err)
			return nil, err
		}
		return query.DecodePage[Consent](raw)
	})
}

// Accept performs the User-side grant. A consent that is no longer
// actionable is rejected locally, with no network call and no cache
// invalidation.
func (s *Service) Accept(ctx context.Context, c Consent) error {
	return s.userTransition(ctx, c, StatusActive, "consent accepted")
}

// Reject performs the User-side rejection (Suspended).
func (s *Service) Reject(ctx context.Context, c Consent) error {
	return s.userTransition(ctx, c, StatusSuspended, "consent rejected")
}

func (s *Service) userTransition(ctx context.Context, c Consent, dest Status, successMsg string) error {
	if !c.CanUserAct() {
		s.logger.Warn("consent transition blocked locally",
			"consent_id", c.ID,
			"current_status", c.Status,
			"target_status", dest)
		return internal.ErrConsentNotActionable
	}

	dto := UpdateConsentDTO{Status: string(dest), IsRead: intPtr(1)}
	if err := dto.Validate(); err != nil {
		return internal.NewValidationError(err.Error(), internal.ErrCodeInvalidConsentStatus)
	}

	path := fmt.Sprintf("/user-consent/%d", c.ID)
	if err := s.api.Put(ctx, path, dto, nil); err != nil {
		s.logger.Error("consent transition rejected by backend",
			"consent_id", c.ID,
			"target_status", dest,
			"error", err)
		s.bus.Failure(query.ResourceUserConsents, transport.MessageOr(err, "failed to update consent"))
		return err
	}

	s.logger.Info("consent transition applied",
		"consent_id", c.ID,
		"target_status", dest)

	s.cache.Invalidate(query.ResourceUserConsents, query.ResourceNotifications)
	s.bus.Success(query.ResourceUserConsents, successMsg)
	return nil
}

// OverrideStatus is the Fiduciary-side direct status set. It is a
// plain administrative write, not restricted to the Pending edge, and
// requires an explicit confirmation step from the caller.
func (s *Service) OverrideStatus(ctx context.Context, consentID int64, dest Status, confirmed bool) error {
	if !confirmed {
		return internal.ErrConfirmationRequired
	}

	dto := OverrideStatusDTO{Status: string(dest)}
	if err := dto.Validate(); err != nil {
		return internal.NewValidationError(err.Error(), internal.ErrCodeInvalidConsentStatus)
	}

	path := fmt.Sprintf("/consent-requests/%d/status", consentID)
	if err := s.api.Put(ctx, path, dto, nil); err != nil {
		s.logger.Error("consent status override failed",
			"consent_id", consentID,
			"target_status", dest,
			"error", err)
		s.bus.Failure(query.ResourceConsentRequests, transport.MessageOr(err, "failed to update consent status"))
		return err
	}

	s.logger.Info("consent status overridden",
		"consent_id", consentID,
		"target_status", dest)

	s.cache.Invalidate(query.ResourceConsentRequests, query.ResourceUserConsents, query.ResourceNotifications)
	s.bus.Success(query.ResourceConsentRequests, "consent status updated")
	return nil
}
