package fiduciary

import (
	"errors"
	"time"
)

// DPO is a Data Protection Officer attached to a fiduciary. At most
// one DPO per fiduciary should be primary; the backend owns that
// uniqueness check, clients only validate field shapes.
type DPO struct {
	ID          int64     `json:"id"`
	FiduciaryID int64     `json:"fiduciary_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	IsPrimary   bool      `json:"is_primary"`
	CreatedAt   time.Time `json:"created_at"`
}

// DPOInput is the body of POST /dpo and PUT /dpo/{id}.
type DPOInput struct {
	FiduciaryID int64  `json:"fiduciary_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	IsPrimary   bool   `json:"is_primary"`
}

func (dto DPOInput) Validate() error {
	if dto.FiduciaryID <= 0 {
		return errors.New("fiduciary_id is required")
	}
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if dto.Email == "" {
		return errors.New("email is required")
	}
	if !validPhone(dto.Phone) {
		return errors.New("phone must be exactly 10 digits")
	}
	return nil
}

func validPhone(phone string) bool {
	if len(phone) != 10 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
