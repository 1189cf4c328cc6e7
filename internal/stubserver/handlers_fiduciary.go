package stubserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/consent-management/internal"
	"github.com/frahmantamala/consent-management/internal/apikey"
	"github.com/frahmantamala/consent-management/internal/core/datamodel/integration"
	"github.com/frahmantamala/consent-management/internal/fiduciary"
	"github.com/frahmantamala/consent-management/internal/purpose"
	"github.com/frahmantamala/consent-management/internal/webhook"
)

// ---------- api keys ----------

func toWireAPIKey(k integration.APIKey) apikey.APIKey {
	return apikey.APIKey{
		ID:          k.ID,
		KeyName:     k.KeyName,
		KeyPrefix:   k.KeyPrefix,
		Environment: k.Environment,
		Status:      k.Status,
		UsageCount:  k.UsageCount,
		CreatedAt:   k.CreatedAt,
		LastUsedAt:  k.LastUsedAt,
	}
}

func (s *Server) handleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	f := filterFrom(r)

	keys, total, err := s.store.ListAPIKeys(f.FiduciaryID, f)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}

	wire := make([]apikey.APIKey, len(keys))
	for i, k := range keys {
		wire[i] = toWireAPIKey(k)
	}
	s.WriteJSON(w, http.StatusOK, wrappedEnvelope{Data: listEnvelope{
		Items:      wire,
		Pagination: paginationFor(total, f.Page, f.Limit),
	}})
}

// handleCreateAPIKey mints a key. Only the bcrypt hash of the secret is
// stored; the plaintext appears in this response and nowhere else.
func (s *Server) handleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var dto apikey.CreateKeyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		s.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		s.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed))
		return
	}

	secret := fmt.Sprintf("ck_%s_%s", dto.Environment, strings.ReplaceAll(uuid.NewString(), "-", ""))
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}

	record := &integration.APIKey{
		FiduciaryID: dto.FiduciaryID,
		KeyName:     dto.KeyName,
		KeyPrefix:   secret[:12],
		SecretHash:  string(hash),
		Environment: dto.Environment,
		Status:      apikey.StatusActive,
	}
	if err := s.store.CreateAPIKey(record); err != nil {
		s.HandleServiceError(w, err)
		return
	}

	s.WriteJSON(w, http.StatusCreated, apikey.CreatedKey{
		APIKey: toWireAPIKey(*record),
		Secret: secret,
	})
}

func (s *Server) handleRevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	s.mutateAPIKey(w, r, apikey.StatusActive, apikey.StatusRevoked, internal.ErrCodeKeyNotActive, "only an active key can be revoked")
}

func (s *Server) handleReactivateAPIKey(w http.ResponseWriter, r *http.Request) {
	s.mutateAPIKey(w, r, apikey.StatusRevoked, apikey.StatusActive, internal.ErrCodeKeyNotRevoked, "only a revoked key can be reactivated")
}

func (s *Server) mutateAPIKey(w http.ResponseWriter, r *http.Request, from, to string, code internal.ErrorCode, guardMsg string) {
	record, err := s.store.GetAPIKey(idParam(r))
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if record == nil {
		s.HandleServiceError(w, internal.NewNotFoundError("API key not found", internal.ErrCodeAPIKeyNotFound))
		return
	}
	if !strings.EqualFold(record.Status, from) {
		s.HandleServiceError(w, internal.NewInvalidTransitionError(guardMsg, code))
		return
	}

	record.Status = to
	if err := s.store.SaveAPIKey(record); err != nil {
		s.HandleServiceError(w, err)
		return
	}
	s.WriteJSON(w, http.StatusOK, toWireAPIKey(*record))
}

// handleDeleteAPIKey removes the key row entirely so every later
// mutation against the id is a clean 404.
func (s *Server) handleDeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.store.DeleteAPIKey(idParam(r))
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if !deleted {
		s.HandleServiceError(w, internal.NewNotFoundError("API key not found", internal.ErrCodeAPIKeyNotFound))
		return
	}
	s.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ---------- webhooks ----------

func toWireWebhook(h integration.Webhook) webhook.Webhook {
	events := []string{}
	if h.Events != "" {
		events = strings.Split(h.Events, ",")
	}
	return webhook.Webhook{
		ID:        h.ID,
		URL:       h.URL,
		Status:    h.Status,
		Events:    events,
		CreatedAt: h.CreatedAt,
	}
}

func (s *Server) handleListWebhooks(w http.ResponseWriter, r *http.Request) {
	f := filterFrom(r)

	hooks, total, err := s.store.ListWebhooks(f.FiduciaryID, f)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}

	wire := make([]webhook.Webhook, len(hooks))
	for i, h := range hooks {
		wire[i] = toWireWebhook(h)
	}
	s.WriteJSON(w, http.StatusOK, wrappedEnvelope{Data: listEnvelope{
		Items:      wire,
		Pagination: paginationFor(total, f.Page, f.Limit),
	}})
}

func (s *Server) handleCreateWebhook(w http.ResponseWriter, r *http.Request) {
	var dto webhook.CreateWebhookDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		s.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		s.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidWebhookURL))
		return
	}

	record := &integration.Webhook{
		FiduciaryID: dto.FiduciaryID,
		URL:         dto.URL,
		Status:      "active",
		Events:      strings.Join(dto.Events, ","),
	}
	if err := s.store.CreateWebhook(record); err != nil {
		s.HandleServiceError(w, err)
		return
	}

	s.WriteJSON(w, http.StatusCreated, toWireWebhook(*record))
}

func (s *Server) handleToggleWebhook(w http.ResponseWriter, r *http.Request) {
	var dto webhook.ToggleStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		s.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		s.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed))
		return
	}

	record, err := s.store.GetWebhook(idParam(r))
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if record == nil {
		s.HandleServiceError(w, internal.NewNotFoundError("webhook not found", internal.ErrCodeWebhookNotFound))
		return
	}

	record.Status = strings.ToLower(dto.Status)
	if err := s.store.SaveWebhook(record); err != nil {
		s.HandleServiceError(w, err)
		return
	}
	s.WriteJSON(w, http.StatusOK, toWireWebhook(*record))
}

func (s *Server) handleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.store.DeleteWebhook(idParam(r))
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if !deleted {
		s.HandleServiceError(w, internal.NewNotFoundError("webhook not found", internal.ErrCodeWebhookNotFound))
		return
	}
	s.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ---------- purpose codes ----------

func toWirePurpose(p integration.PurposeCode) purpose.PurposeCode {
	return purpose.PurposeCode{
		ID:        p.ID,
		Code:      p.Code,
		Purpose:   p.Purpose,
		CreatedAt: p.CreatedAt,
	}
}

func (s *Server) handleListPurposeCodes(w http.ResponseWriter, r *http.Request) {
	f := filterFrom(r)

	codes, total, err := s.store.ListPurposeCodes(f)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}

	wire := make([]purpose.PurposeCode, len(codes))
	for i, p := range codes {
		wire[i] = toWirePurpose(p)
	}
	s.WriteJSON(w, http.StatusOK, wrappedEnvelope{Data: listEnvelope{
		Items:      wire,
		Pagination: paginationFor(total, f.Page, f.Limit),
	}})
}

func (s *Server) handleCreatePurposeCode(w http.ResponseWriter, r *http.Request) {
	var dto purpose.CreatePurposeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		s.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		s.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidPurposeCode))
		return
	}

	record := &integration.PurposeCode{
		FiduciaryID: dto.FiduciaryID,
		Code:        dto.Code,
		Purpose:     dto.Purpose,
	}
	if err := s.store.CreatePurposeCode(record); err != nil {
		s.HandleServiceError(w, err)
		return
	}
	s.WriteJSON(w, http.StatusCreated, toWirePurpose(*record))
}

func (s *Server) handleDeletePurposeCode(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.store.DeletePurposeCode(idParam(r))
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if !deleted {
		s.HandleServiceError(w, internal.NewNotFoundError("purpose code not found", internal.ErrCodePurposeNotFound))
		return
	}
	s.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ---------- events and details ----------

func toWireEvent(e EventRow) fiduciary.Event {
	return fiduciary.Event{
		ID:          e.ID,
		FiduciaryID: e.FiduciaryID,
		EventType:   e.EventType,
		Description: e.Description,
		OccurredAt:  e.OccurredAt,
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	f := filterFrom(r)

	rows, total, err := s.store.ListEvents(f)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}

	wire := make([]fiduciary.Event, len(rows))
	for i, row := range rows {
		wire[i] = toWireEvent(row)
	}
	s.WriteJSON(w, http.StatusOK, wrappedEnvelope{Data: listEnvelope{
		Items:      wire,
		Pagination: paginationFor(total, f.Page, f.Limit),
	}})
}

func (s *Server) handleFiduciaryDetails(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)

	record, err := s.store.GetFiduciary(id)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	if record == nil {
		s.HandleServiceError(w, internal.NewNotFoundError("fiduciary not found", internal.ErrCodeFiduciaryNotFound))
		return
	}

	dpos, err := s.store.ListDPOs(id)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	events, _, err := s.store.ListEvents(ListFilter{Page: 1, Limit: 10, FiduciaryID: id})
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}
	consentCount, err := s.store.ConsentCountFor(id)
	if err != nil {
		s.HandleServiceError(w, err)
		return
	}

	details := fiduciary.Details{
		Fiduciary:    toWireFiduciary(FiduciaryRow{Fiduciary: *record, ConsentCount: consentCount}),
		DPOs:         make([]fiduciary.DPO, len(dpos)),
		RecentEvents: make([]fiduciary.Event, len(events)),
	}
	for i, d := range dpos {
		details.DPOs[i] = toWireDPO(d)
	}
	for i, e := range events {
		details.RecentEvents[i] = toWireEvent(e)
	}

	s.WriteJSON(w, http.StatusOK, details)
}
