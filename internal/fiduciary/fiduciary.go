package fiduciary

import (
	"errors"
	"time"
)

// Fiduciary is a data-consuming organization registered on the
// platform. Status carries the same vocabulary as consents so the
// admin dashboard can reuse the status chips.
type Fiduciary struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Sector       string    `json:"sector"`
	Status       string    `json:"status"`
	ConsentCount int       `json:"consent_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Details is the expanded single-fiduciary view with its DPO roster
// and recent activity embedded.
type Details struct {
	Fiduciary
	DPOs         []DPO   `json:"dpos"`
	RecentEvents []Event `json:"recent_events"`
}

// Event is one entry of a fiduciary's activity feed, newest first.
type Event struct {
	ID          int64     `json:"id"`
	FiduciaryID int64     `json:"fiduciary_id"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// UpdateStatusDTO is the body of PUT /fiduciaries/{id}/status.
type UpdateStatusDTO struct {
	Status string `json:"status"`
}

func (dto UpdateStatusDTO) Validate() error {
	if dto.Status == "" {
		return errors.New("status is required")
	}
	return nil
}
