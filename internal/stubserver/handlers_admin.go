package stubserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/frahmantamala/consent-management/internal"
	"github.com/frahmantamala/consent-management/internal/consent"
	"github.com/frahmantamala/consent-management/internal/core/datamodel/directory"
	feedbackmodel "github.com/frahmantamala/consent-management/internal/core/datamodel/feedback"
	"github.com/frahmantamala/consent-management/internal/feedback"
	"github.com/frahmantamala/consent-management/internal/fiduciary"
	"github.com/frahmantamala/consent-management/internal/roles"
	"github.com/frahmantamala/consent-management/internal/stats"
)

// ---------- consent requests (admin view) ----------

func (s *Server) handleConsentRequests(w http.ResponseWriter, r *http.Request) {
	f := filterFrom(r)

	consents, total, err := s.store.ListConsents(0, f)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	counts, err := s.store.ConsentStatusCounts(0, f)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}

	s.WriteJSON(w, http.StatusOK, wrappedEnvelope{Data: listEnvelope{
		Items:      toWireConsents(consents),
		Pagination: paginationFor(total, f.Page, f.Limit),
		Counts:     counts,
	}})
}

type overrideStatusRequest struct {
	Status string `json:"status"`
}

// handleOverrideConsent is the admin override: unlike the user
// transition it may set any known status and bypasses the
// actionability guard.
func (s *Server) handleOverrideConsent(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.GetConsent(idParam(r))
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if record == nil {
		s.HandleServiceError(w, internal.NewNotFoundError("consent not found", internal.ErrCodeConsentNotFound))
		return
	}

	var req overrideStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dest := consent.Canonical(req.Status)
	switch dest {
	case consent.StatusPending, consent.StatusActive, consent.StatusSuspended, consent.StatusExpired, consent.StatusRevoked:
	default:
		s.HandleServiceError(w, internal.NewValidationError("unknown status", internal.ErrCodeInvalidConsentStatus))
		return
	}

	previous := record.Status
	record.Status = string(dest)
	now := time.Now()
	if dest == consent.StatusActive && record.GrantedAt == nil {
		record.GrantedAt = &now
	}
	if dest == consent.StatusSuspended && record.SuspendedAt == nil {
		record.SuspendedAt = &now
	}

	if err := s.store.SaveConsent(record); err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if record.Status != previous {
		s.notifyFiduciary(record, previous)
	}

	s.WriteJSON(w, http.StatusOK, toWireConsent(*record))
}

// ---------- fiduciaries ----------

func toWireFiduciary(row FiduciaryRow) fiduciary.Fiduciary {
	return fiduciary.Fiduciary{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		Sector:       row.Sector,
		Status:       row.Status,
		ConsentCount: row.ConsentCount,
		CreatedAt:    row.CreatedAt,
	}
}

func (s *Server) handleListFiduciaries(w http.ResponseWriter, r *http.Request) {
	f := filterFrom(r)

	rows, total, err := s.store.ListFiduciaries(f)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}

	wire := make([]fiduciary.Fiduciary, len(rows))
	for i, row := range rows {
		wire[i] = toWireFiduciary(row)
	}
	s.WriteJSON(w, http.StatusOK, wrappedEnvelope{Data: listEnvelope{
		Items:      wire,
		Pagination: paginationFor(total, f.Page, f.Limit),
	}})
}

func (s *Server) handleUpdateFiduciaryStatus(w http.ResponseWriter, r *http.Request) {
	var dto fiduciary.UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		s.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		s.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed))
		return
	}

	id := idParam(r)
	updated, err := s.store.UpdateFiduciaryStatus(id, dto.Status)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if !updated {
		s.HandleServiceError(w, internal.NewNotFoundError("fiduciary not found", internal.ErrCodeFiduciaryNotFound))
		return
	}

	if err := s.store.touchFiduciaryEvent(id, "fiduciary.status_changed", "status set to "+dto.Status); err != nil {
		s.Logger.Error("failed to record fiduciary event", "fiduciary_id", id, "error", err)
	}
	s.WriteJSON(w, http.StatusOK, map[string]string{"status": dto.Status})
}

// ---------- DPOs ----------

func toWireDPO(d directory.DPO) fiduciary.DPO {
	return fiduciary.DPO{
		ID:          d.ID,
		FiduciaryID: d.FiduciaryID,
		Name:        d.Name,
		Email:       d.Email,
		Phone:       d.Phone,
		IsPrimary:   d.IsPrimary,
		CreatedAt:   d.CreatedAt,
	}
}

func (s *Server) handleListDPOs(w http.ResponseWriter, r *http.Request) {
	f := filterFrom(r)

	dpos, err := s.store.ListDPOs(f.FiduciaryID)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}

	wire := make([]fiduciary.DPO, len(dpos))
	for i, d := range dpos {
		wire[i] = toWireDPO(d)
	}
	s.WriteJSON(w, http.StatusOK, wire)
}

func (s *Server) handleCreateDPO(w http.ResponseWriter, r *http.Request) {
	var dto fiduciary.DPOInput
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		s.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		s.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidPhone))
		return
	}

	record := &directory.DPO{
		FiduciaryID: dto.FiduciaryID,
		Name:        dto.Name,
		Email:       dto.Email,
		Phone:       dto.Phone,
		IsPrimary:   dto.IsPrimary,
	}
	if err := s.store.CreateDPO(record); err != nil {
		s.HandleServiceError(w, err)
		return
	}
	s.WriteJSON(w, http.StatusCreated, toWireDPO(*record))
}

func (s *Server) handleUpdateDPO(w http.ResponseWriter, r *http.Request) {
	var dto fiduciary.DPOInput
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		s.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		s.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidPhone))
		return
	}

	record, err := s.store.GetDPO(idParam(r))
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if record == nil {
		s.HandleServiceError(w, internal.NewNotFoundError("DPO not found", internal.ErrCodeDPONotFound))
		return
	}

	record.Name = dto.Name
	record.Email = dto.Email
	record.Phone = dto.Phone
	record.IsPrimary = dto.IsPrimary
	if err := s.store.SaveDPO(record); err != nil {
		s.HandleServiceError(w, err)
		return
	}
	s.WriteJSON(w, http.StatusOK, toWireDPO(*record))
}

func (s *Server) handleDeleteDPO(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.store.DeleteDPO(idParam(r))
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if !deleted {
		s.HandleServiceError(w, internal.NewNotFoundError("DPO not found", internal.ErrCodeDPONotFound))
		return
	}
	s.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ---------- feedback (admin) ----------

func toWireFeedback(entry feedbackmodel.Feedback) feedback.Feedback {
	return feedback.Feedback{
		ID:           entry.ID,
		Name:         entry.Name,
		Email:        entry.Email,
		Category:     entry.Category,
		Message:      entry.Message,
		Response:     entry.Response,
		ResponseDate: entry.ResponseDate,
		CreatedAt:    entry.CreatedAt,
	}
}

func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	f := filterFrom(r)

	entries, total, err := s.store.ListFeedback(f)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}

	wire := make([]feedback.Feedback, len(entries))
	for i, entry := range entries {
		wire[i] = toWireFeedback(entry)
	}
	s.WriteJSON(w, http.StatusOK, wrappedEnvelope{Data: listEnvelope{
		Items:      wire,
		Pagination: paginationFor(total, f.Page, f.Limit),
	}})
}

// handleRespondFeedback sets the response exactly once; a second
// attempt against the same entry conflicts.
func (s *Server) handleRespondFeedback(w http.ResponseWriter, r *http.Request) {
	var dto feedback.RespondDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		s.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		s.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed))
		return
	}

	entry, err := s.store.GetFeedback(dto.FeedbackID)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if entry == nil {
		s.HandleServiceError(w, internal.NewNotFoundError("feedback not found", internal.ErrCodeFeedbackNotFound))
		return
	}
	if entry.Response != nil {
		s.HandleServiceError(w, internal.NewInvalidTransitionError("feedback already has a response", internal.ErrCodeFeedbackResolved))
		return
	}

	now := time.Now()
	entry.Response = &dto.Response
	entry.ResponseDate = &now
	if err := s.store.SaveFeedback(entry); err != nil {
		s.HandleServiceError(w, err)
		return
	}
	s.WriteJSON(w, http.StatusOK, toWireFeedback(*entry))
}

// ---------- role registry ----------

func (s *Server) handleUsersWithRoles(w http.ResponseWriter, r *http.Request) {
	f := filterFrom(r)

	users, total, err := s.store.ListUsersWithRoles(f)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}

	wire := make([]roles.UserWithRoles, len(users))
	for i, u := range users {
		assigned, err := s.store.RolesFor(u.Email)
		if err != nil {
			s.HandleServiceError(w, err)
			return
		}
		extra := make([]roles.AdditionalRole, len(assigned))
		for j, role := range assigned {
			extra[j] = roles.AdditionalRole{
				Role:       role.Role,
				AssignedAt: role.AssignedAt,
				AssignedBy: role.AssignedBy,
			}
		}
		wire[i] = roles.UserWithRoles{
			ID:              u.ID,
			Name:            u.Name,
			Email:           u.Email,
			Mobile:          u.Phone,
			PrimaryRole:     u.PrimaryRole,
			AdditionalRoles: extra,
			IsSuperAdmin:    u.IsSuperAdmin,
			Status:          "Active",
		}
	}

	s.WriteJSON(w, http.StatusOK, wrappedEnvelope{Data: listEnvelope{
		Items:      wire,
		Pagination: paginationFor(total, f.Page, f.Limit),
	}})
}

func (s *Server) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	var dto roles.AssignRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		s.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		s.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidRole))
		return
	}

	target, err := s.store.GetUserByEmail(dto.Email)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if target == nil {
		s.HandleServiceError(w, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound))
		return
	}

	actor := claimsFrom(r)
	assigner, err := s.store.GetUserByID(actor.UserID)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	assignedBy := ""
	if assigner != nil {
		assignedBy = assigner.Email
	}

	if err := s.store.AssignRole(dto.Email, dto.Role, assignedBy); err != nil {
		s.HandleServiceError(w, err)
		return
	}
	s.WriteJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

func (s *Server) handleRemoveRole(w http.ResponseWriter, r *http.Request) {
	var dto roles.RemoveRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		s.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		s.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidRole))
		return
	}

	removed, err := s.store.RemoveRole(dto.Email, dto.Role)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if !removed {
		s.HandleServiceError(w, internal.NewNotFoundError("role assignment not found", internal.ErrCodeUserNotFound))
		return
	}
	s.WriteJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handlePlatformMetrics(w http.ResponseWriter, r *http.Request) {
	users, fiduciaries, admins, consents, err := s.store.PlatformMetrics()
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}

	s.WriteJSON(w, http.StatusOK, map[string]any{
		"data": stats.PlatformMetrics{
			Users:       users,
			Fiduciaries: fiduciaries,
			Admins:      admins,
			Consents:    consents,
		},
	})
}
