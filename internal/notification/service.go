package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/consent-management/internal"
	"github.com/frahmantamala/consent-management/internal/consent"
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

// List fetches the notification feed (the User's consent collection as
// seen by the notification screen) and projects it.
func (s *Service) List(ctx context.Context, params query.ListParams) ([]Item, *query.Pagination, error) {
	params = params.Normalize()
	key := params.CacheKey(query.ResourceNotifications)

	page, err := query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*query.Page[consent.Consent], error) {
		var raw json.RawMessage
		if err := s.api.Get(ctx, "/user-notifications", params.Values(), &raw); err != nil {
			s.logger.Error("failed to fetch notifications", "error", err)
			return nil, err
		}
		return query.DecodePage[consent.Consent](raw)
	})
	if page == nil {
		return nil, nil, err
	}
	return Project(page.Items), &page.Pagination, err
}

// MarkRead is the notification quick action: it flips is_read without
// an explicit status mutation. The contract callers hold is that
// is_read=1 with no status means "acknowledged".
func (s *Service) MarkRead(ctx context.Context, consentID int64, isRead int) error {
	if isRead != 0 && isRead != 1 {
		return internal.NewValidationError("is_read must be 0 or 1", internal.ErrCodeValidationFailed)
	}

	dto := consent.UpdateConsentDTO{IsRead: &isRead}
	path := fmt.Sprintf("/user-consent/%d", consentID)
	if err := s.api.Put(ctx, path, dto, nil); err != nil {
		s.logger.Error("failed to update read flag", "consent_id", consentID, "error", err)
		s.bus.Failure(query.ResourceNotifications, transport.MessageOr(err, "failed to update notification"))
		return err
	}

	s.cache.Invalidate(query.ResourceNotifications, query.ResourceUserConsents)
	return nil
}
