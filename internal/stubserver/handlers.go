package stubserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/consent-management/internal"
	"github.com/frahmantamala/consent-management/internal/consent"
	consentmodel "github.com/frahmantamala/consent-management/internal/core/datamodel/consent"
	"github.com/frahmantamala/consent-management/internal/core/datamodel/directory"
	feedbackmodel "github.com/frahmantamala/consent-management/internal/core/datamodel/feedback"
	"github.com/frahmantamala/consent-management/internal/feedback"
	"github.com/frahmantamala/consent-management/internal/user"
)

func filterFrom(r *http.Request) ListFilter {
	page, limit := pageParams(r)
	q := r.URL.Query()

	fiduciaryID, _ := strconv.ParseInt(q.Get("fiduciaryId"), 10, 64)
	return ListFilter{
		Page:        page,
		Limit:       limit,
		Search:      q.Get("searchterm"),
		Status:      q.Get("status"),
		FiduciaryID: fiduciaryID,
		DateFrom:    q.Get("dateFrom"),
		DateTo:      q.Get("dateTo"),
	}
}

func idParam(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}

func toWireConsent(c consentmodel.Consent) consent.Consent {
	return consent.Consent{
		ID:          c.ID,
		UserID:      c.UserID,
		FiduciaryID: c.FiduciaryID,
		Entity:      c.Entity,
		DataItems:   c.DataItems,
		PurposeCode: c.PurposeCode,
		PurposeText: c.PurposeText,
		RequestedAt: c.RequestedAt,
		Expiry:      c.Expiry,
		GrantedAt:   c.GrantedAt,
		SuspendedAt: c.SuspendedAt,
		Status:      consent.Canonical(c.Status),
		IsRead:      c.IsRead,
	}
}

func toWireConsents(models []consentmodel.Consent) []consent.Consent {
	out := make([]consent.Consent, len(models))
	for i, m := range models {
		out[i] = toWireConsent(m)
	}
	return out
}

// ---------- auth ----------

type tokenRequest struct {
	Email string `json:"email"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// handleIssueToken mints a signed access token for a directory user.
// This is the stub's stand-in for the platform's real login flow.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		s.WriteError(w, http.StatusBadRequest, "email is required")
		return
	}

	u, err := s.store.GetUserByEmail(req.Email)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if u == nil {
		s.HandleServiceError(w, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound))
		return
	}

	roles, err := s.store.RolesFor(u.Email)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	extra := make([]string, len(roles))
	for i, role := range roles {
		extra[i] = role.Role
	}

	token, err := s.tokens.Generate(u.ID, u.PrimaryRole, extra, u.IsSuperAdmin)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	s.WriteJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// ---------- consents ----------

func (s *Server) handleUserConsents(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	f := filterFrom(r)

	consents, total, err := s.store.ListConsents(claims.UserID, f)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	counts, err := s.store.ConsentStatusCounts(claims.UserID, f)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}

	s.WriteJSON(w, http.StatusOK, listEnvelope{
		Items:      toWireConsents(consents),
		Pagination: paginationFor(total, f.Page, f.Limit),
		Counts:     counts,
	})
}

type updateConsentRequest struct {
	Status string `json:"status,omitempty"`
	IsRead *int   `json:"is_read,omitempty"`
}

// handleUpdateUserConsent applies a user decision or a read
// acknowledgement. Status transitions run through the same lifecycle
// rules the client enforces; the server remains the authority.
func (s *Server) handleUpdateUserConsent(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	record, err := s.store.GetConsent(idParam(r))
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if record == nil || record.UserID != claims.UserID {
		s.HandleServiceError(w, internal.NewNotFoundError("consent not found", internal.ErrCodeConsentNotFound))
		return
	}

	var req updateConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wire := toWireConsent(*record)
	previousStatus := wire.Status

	if req.Status != "" {
		var transitionErr error
		switch consent.Canonical(req.Status) {
		case consent.StatusActive:
			transitionErr = wire.Accept()
		case consent.StatusSuspended:
			transitionErr = wire.Reject()
		default:
			s.HandleServiceError(w, internal.NewValidationError("unsupported status transition", internal.ErrCodeInvalidConsentStatus))
			return
		}
		if transitionErr != nil {
			s.HandleServiceError(w, internal.ErrConsentNotActionable.WithCause(transitionErr))
			return
		}
	} else if req.IsRead != nil {
		if *req.IsRead != 0 && *req.IsRead != 1 {
			s.WriteError(w, http.StatusBadRequest, "is_read must be 0 or 1")
			return
		}
		wire.IsRead = *req.IsRead
	}

	record.Status = string(wire.Status)
	record.GrantedAt = wire.GrantedAt
	record.SuspendedAt = wire.SuspendedAt
	record.IsRead = wire.IsRead
	if err := s.store.SaveConsent(record); err != nil {
		s.HandleServiceError(w, err)
		return
	}

	if req.Status != "" && wire.Status != previousStatus {
		s.notifyFiduciary(record, string(previousStatus))
	}

	s.WriteJSON(w, http.StatusOK, toWireConsent(*record))
}

// notifyFiduciary pushes the state change to the fiduciary's active
// webhooks via the dispatcher.
func (s *Server) notifyFiduciary(record *consentmodel.Consent, previousStatus string) {
	hooks, err := s.store.ActiveWebhooks(record.FiduciaryID)
	if err != nil {
		s.Logger.Error("failed to load webhooks for delivery", "fiduciary_id", record.FiduciaryID, "error", err)
		return
	}

	for _, hook := range hooks {
		s.dispatcher.Enqueue(DeliveryJob{
			WebhookID:   hook.ID,
			FiduciaryID: record.FiduciaryID,
			URL:         hook.URL,
			EventType:   "consent.status_changed",
			Payload: map[string]any{
				"consent_id":      record.ID,
				"previous_status": previousStatus,
				"status":          record.Status,
			},
		})
	}
}

// ---------- notifications ----------

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	f := filterFrom(r)

	consents, total, err := s.store.ListNotifications(claims.UserID, f)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}

	s.WriteJSON(w, http.StatusOK, listEnvelope{
		Items:      toWireConsents(consents),
		Pagination: paginationFor(total, f.Page, f.Limit),
	})
}

// ---------- profile ----------

func toWireProfile(u *directory.User) user.Profile {
	return user.Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	u, err := s.store.GetUserByID(claims.UserID)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if u == nil {
		s.HandleServiceError(w, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound))
		return
	}

	s.WriteJSON(w, http.StatusOK, toWireProfile(u))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var dto user.UpdateProfileDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		s.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		s.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed))
		return
	}

	u, err := s.store.GetUserByID(claims.UserID)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if u == nil {
		s.HandleServiceError(w, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound))
		return
	}

	u.Name = dto.Name
	u.Phone = dto.Phone
	u.AvatarURL = dto.AvatarURL
	if err := s.store.SaveUser(u); err != nil {
		s.HandleServiceError(w, err)
		return
	}

	s.WriteJSON(w, http.StatusOK, toWireProfile(u))
}

// ---------- feedback (public submit) ----------

func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var dto feedback.SubmitFeedbackDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		s.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		s.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeMessageTooShort))
		return
	}

	entry := &feedbackmodel.Feedback{
		Name:     dto.Name,
		Email:    dto.Email,
		Category: dto.Category,
		Message:  dto.Message,
	}
	if err := s.store.CreateFeedback(entry); err != nil {
		s.HandleServiceError(w, err)
		return
	}

	s.WriteJSON(w, http.StatusCreated, toWireFeedback(*entry))
}
