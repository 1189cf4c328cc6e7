package fiduciary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/frahmantamala/consent-management/internal"
	"github.com/frahmantamala/consent-management/internal/core/events"
	"github.com/frahmantamala/consent-management/internal/query"
	"github.com/frahmantamala/consent-management/internal/stats"
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

func (s *Service) List(ctx context.Context, params query.ListParams) (*query.Page[Fiduciary], error) {
	params = params.Normalize()
	key := params.CacheKey(query.ResourceFiduciaries)

	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*query.Page[Fiduciary], error) {
		var raw json.RawMessage
		if err := s.api.Get(ctx, "/fiduciaries", params.Values(), &raw); err != nil {
			s.logger.Error("failed to fetch fiduciaries", "error", err)
			return nil, err
		}
		return query.DecodePage[Fiduciary](raw)
	})
}

// ListStats are the status chips above the fiduciary table. Reduced
// over the loaded page when the backend sends no counts summary.
func (s *Service) ListStats(page *query.Page[Fiduciary]) map[string]int {
	if page == nil {
		return map[string]int{}
	}
	if len(page.Counts) > 0 {
		return page.Counts
	}
	return stats.PageStatusCounts(page.Items, func(f Fiduciary) string { return f.Status })
}

// Details fetches the expanded single-fiduciary view.
func (s *Service) Details(ctx context.Context, fiduciaryID int64) (*Details, error) {
	key := query.Key(query.ResourceFiduciaryDetails, fmt.Sprintf("%d", fiduciaryID))

	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*Details, error) {
		var details Details
		path := fmt.Sprintf("/fiduciary/%d/details", fiduciaryID)
		if err := s.api.Get(ctx, path, nil, &details); err != nil {
			s.logger.Error("failed to fetch fiduciary details", "fiduciary_id", fiduciaryID, "error", err)
			return nil, err
		}
		return &details, nil
	})
}

// UpdateStatus changes a fiduciary's status from the admin view.
func (s *Service) UpdateStatus(ctx context.Context, fiduciaryID int64, dto UpdateStatusDTO) error {
	if err := dto.Validate(); err != nil {
		return internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	path := fmt.Sprintf("/fiduciaries/%d/status", fiduciaryID)
	if err := s.api.Put(ctx, path, dto, nil); err != nil {
		s.logger.Error("failed to update fiduciary status", "fiduciary_id", fiduciaryID, "error", err)
		s.bus.Failure(query.ResourceFiduciaries, transport.MessageOr(err, "failed to update fiduciary status"))
		return err
	}

	s.logger.Info("fiduciary status updated", "fiduciary_id", fiduciaryID, "status", dto.Status)
	s.cache.Invalidate(query.ResourceFiduciaries, query.ResourceFiduciaryDetails)
	s.bus.Success(query.ResourceFiduciaries, "fiduciary status updated")
	return nil
}

// Events streams the fiduciary activity feed, optionally scoped to one
// fiduciary via params.FiduciaryID.
func (s *Service) Events(ctx context.Context, params query.ListParams) (*query.Page[Event], error) {
	params = params.Normalize()
	key := params.CacheKey(query.ResourceEvents)

	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*query.Page[Event], error) {
		var raw json.RawMessage
		if err := s.api.Get(ctx, "/fiduciary-events", params.Values(), &raw); err != nil {
			s.logger.Error("failed to fetch fiduciary events", "error", err)
			return nil, err
		}
		return query.DecodePage[Event](raw)
	})
}

// DPOs lists the officers of one fiduciary.
func (s *Service) DPOs(ctx context.Context, fiduciaryID int64) ([]DPO, error) {
	key := query.Key(query.ResourceDPOs, fmt.Sprintf("%d", fiduciaryID))

	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]DPO, error) {
		v := url.Values{}
		v.Set("fiduciaryId", fmt.Sprintf("%d", fiduciaryID))

		var out []DPO
		if err := s.api.Get(ctx, "/dpo", v, &out); err != nil {
			s.logger.Error("failed to fetch dpos", "fiduciary_id", fiduciaryID, "error", err)
			return nil, err
		}
		return out, nil
	})
}

// CreateDPO registers an officer. Primary uniqueness is not enforced
// here; a backend rejection surfaces as a recoverable error.
func (s *Service) CreateDPO(ctx context.Context, dto DPOInput) (*DPO, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidPhone)
	}

	var created DPO
	if err := s.api.Post(ctx, "/dpo", dto, &created); err != nil {
		s.logger.Error("failed to create dpo", "fiduciary_id", dto.FiduciaryID, "error", err)
		s.bus.Failure(query.ResourceDPOs, transport.MessageOr(err, "failed to create DPO"))
		return nil, err
	}

	s.logger.Info("dpo created", "dpo_id", created.ID, "fiduciary_id", created.FiduciaryID)
	s.invalidateDPOViews()
	s.bus.Success(query.ResourceDPOs, "DPO created")
	return &created, nil
}

func (s *Service) UpdateDPO(ctx context.Context, dpoID int64, dto DPOInput) error {
	if err := dto.Validate(); err != nil {
		return internal.NewValidationError(err.Error(), internal.ErrCodeInvalidPhone)
	}

	path := fmt.Sprintf("/dpo/%d", dpoID)
	if err := s.api.Put(ctx, path, dto, nil); err != nil {
		s.logger.Error("failed to update dpo", "dpo_id", dpoID, "error", err)
		s.bus.Failure(query.ResourceDPOs, transport.MessageOr(err, "failed to update DPO"))
		return err
	}

	s.logger.Info("dpo updated", "dpo_id", dpoID)
	s.invalidateDPOViews()
	s.bus.Success(query.ResourceDPOs, "DPO updated")
	return nil
}

func (s *Service) DeleteDPO(ctx context.Context, dpoID int64, confirmed bool) error {
	if !confirmed {
		return internal.ErrConfirmationRequired
	}

	path := fmt.Sprintf("/dpo/%d", dpoID)
	if err := s.api.Delete(ctx, path, nil, nil); err != nil {
		s.logger.Error("failed to delete dpo", "dpo_id", dpoID, "error", err)
		s.bus.Failure(query.ResourceDPOs, transport.MessageOr(err, "failed to delete DPO"))
		return err
	}

	s.logger.Info("dpo deleted", "dpo_id", dpoID)
	s.invalidateDPOViews()
	s.bus.Success(query.ResourceDPOs, "DPO deleted")
	return nil
}

// DPO mutations also age out the details view that embeds the roster.
func (s *Service) invalidateDPOViews() {
	s.cache.Invalidate(query.ResourceDPOs, query.ResourceFiduciaryDetails)
}
