package purpose

import (
	"errors"
	"time"
)

// PurposeCode is one entry of a Fiduciary's purpose taxonomy. There is
// no update operation: codes are created, referenced by consents, and
// eventually deleted for good.
type PurposeCode struct {
	ID        int64     `json:"id"`
	Code      int       `json:"code"`
	Purpose   string    `json:"purpose"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePurposeDTO is the body of POST /purpose-card.
type CreatePurposeDTO struct {
	FiduciaryID int64  `json:"fiduciary_id"`
	Code        int    `json:"code"`
	Purpose     string `json:"purpose"`
}

func (dto CreatePurposeDTO) Validate() error {
	if dto.FiduciaryID <= 0 {
		return errors.New("fiduciary_id is required")
	}
	if dto.Code <= 0 {
		return errors.New("code must be a positive number")
	}
	if dto.Purpose == "" {
		return errors.New("purpose text is required")
	}
	return nil
}
