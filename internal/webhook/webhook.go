package webhook

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// Webhook is one Fiduciary-owned delivery endpoint. Status is a
// reversible toggle, unlike the consent lifecycle.
type Webhook struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	Events    []string  `json:"events"`
	CreatedAt time.Time `json:"created_at"`
}

func (w *Webhook) IsActive() bool {
	return strings.EqualFold(w.Status, StatusActive)
}

// CreateWebhookDTO is the body of POST /webhooks.
type CreateWebhookDTO struct {
	FiduciaryID int64    `json:"fiduciary_id"`
	URL         string   `json:"url"`
	Events      []string `json:"events"`
}

func (dto CreateWebhookDTO) Validate() error {
	if dto.FiduciaryID <= 0 {
		return errors.New("fiduciary_id is required")
	}
	if dto.URL == "" {
		return errors.New("url is required")
	}
	parsed, err := url.Parse(dto.URL)
	if err != nil {
		return errors.New("url is not valid")
	}
	if parsed.Scheme != "https" {
		return errors.New("webhook url must use https")
	}
	if parsed.Host == "" {
		return errors.New("webhook url must have a host")
	}
	if len(dto.Events) == 0 {
		return errors.New("at least one event subscription is required")
	}
	return nil
}

// ToggleStatusDTO is the body of PUT /webhooks/{id}/status.
type ToggleStatusDTO struct {
	Status string `json:"status"`
}

func (dto ToggleStatusDTO) Validate() error {
	if !strings.EqualFold(dto.Status, StatusActive) && !strings.EqualFold(dto.Status, StatusInactive) {
		return errors.New("status must be Active or Inactive")
	}
	return nil
}
