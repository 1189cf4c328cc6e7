package consent

import (
	"errors"
)

// UpdateConsentDTO is the body of PUT /user-consent/{id}. A status
// mutation always also sets is_read=1; an is_read-only update leaves
// status untouched (the notification quick action).
type UpdateConsentDTO struct {
	Status string `json:"status,omitempty"`
	IsRead *int   `json:"is_read,omitempty"`
}

func (dto UpdateConsentDTO) Validate() error {
	if dto.Status == "" && dto.IsRead == nil {
		return errors.New("either status or is_read must be provided")
	}
	if dto.Status != "" {
		if dto.IsRead == nil || *dto.IsRead != 1 {
			return errors.New("a status mutation must also set is_read=1")
		}
	}
	if dto.IsRead != nil && *dto.IsRead != 0 && *dto.IsRead != 1 {
		return errors.New("is_read must be 0 or 1")
	}
	return nil
}

// OverrideStatusDTO is the body of the fiduciary-side direct status
// set (PUT /consent-requests/{id}/status). It is not restricted to
// the Pending edge.
type OverrideStatusDTO struct {
	Status string `json:"status"`
}

func (dto OverrideStatusDTO) Validate() error {
	if dto.Status == "" {
		return errors.New("status is required")
	}
	return nil
}

// Domain errors
var (
	ErrNotActionable = errors.New("consent is no longer actionable by the user")
	ErrNotFound      = errors.New("consent not found")
)

func intPtr(v int) *int { return &v }
