package feedback

import (
	"context"
	"encoding/json"
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

// Submit files a new feedback entry. Message length is checked locally
// and short messages never reach the network.
func (s *Service) Submit(ctx context.Context, dto SubmitFeedbackDTO) (*Feedback, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeMessageTooShort)
	}

	var created Feedback
	if err := s.api.Post(ctx, "/feedback", dto, &created); err != nil {
		s.logger.Error("failed to submit feedback", "error", err)
		s.bus.Failure(query.ResourceFeedback, transport.MessageOr(err, "failed to submit feedback"))
		return nil, err
	}

	s.logger.Info("feedback submitted", "feedback_id", created.ID, "category", created.Category)
	s.cache.Invalidate(query.ResourceFeedback)
	s.bus.Success(query.ResourceFeedback, "feedback submitted")
	return &created, nil
}

func (s *Service) List(ctx context.Context, params query.ListParams) (*query.Page[Feedback], error) {
	params = params.Normalize()
	key := params.CacheKey(query.ResourceFeedback)

	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*query.Page[Feedback], error) {
		var raw json.RawMessage
		if err := s.api.Get(ctx, "/feedbacks", params.Values(), &raw); err != nil {
			s.logger.Error("failed to fetch feedback", "error", err)
			return nil, err
		}
		return query.DecodePage[Feedback](raw)
	})
}

// Respond resolves a feedback entry. The response is set exactly once:
// responding to an already-resolved entry is an invalid transition and
// is rejected before dispatch.
func (s *Service) Respond(ctx context.Context, entry Feedback, response string) error {
	if entry.IsResolved() {
		return internal.NewInvalidTransitionError("feedback already has a response", internal.ErrCodeFeedbackResolved)
	}

	dto := RespondDTO{FeedbackID: entry.ID, Response: response}
	if err := dto.Validate(); err != nil {
		return internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	if err := s.api.Post(ctx, "/feedback-response", dto, nil); err != nil {
		s.logger.Error("failed to respond to feedback", "feedback_id", entry.ID, "error", err)
		s.bus.Failure(query.ResourceFeedback, transport.MessageOr(err, "failed to send response"))
		return err
	}

	s.logger.Info("feedback resolved", "feedback_id", entry.ID)
	s.cache.Invalidate(query.ResourceFeedback)
	s.bus.Success(query.ResourceFeedback, "response sent")
	return nil
}
