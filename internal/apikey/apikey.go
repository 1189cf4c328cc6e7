package apikey

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusActive  = "active"
	StatusRevoked = "revoked"

	EnvironmentLive = "live"
	EnvironmentTest = "test"
)

// APIKey is a Fiduciary credential. Only the prefix of the secret is
// ever persisted; the full secret appears exactly once, on the create
// response, and is never retrievable again.
type APIKey struct {
	ID          int64      `json:"id"`
	KeyName     string     `json:"key_name"`
	KeyPrefix   string     `json:"key_prefix"`
	Environment string     `json:"environment"`
	Status      string     `json:"status"`
	UsageCount  int64      `json:"usage_count"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
}

func (k *APIKey) IsActive() bool  { return strings.EqualFold(k.Status, StatusActive) }
func (k *APIKey) IsRevoked() bool { return strings.EqualFold(k.Status, StatusRevoked) }

// CreatedKey is the one-time create response carrying the full secret.
type CreatedKey struct {
	APIKey
	Secret string `json:"secret"`
}

// CreateKeyDTO is the body of POST /api-keys. The owning fiduciary
// travels in the body; the server trusts no ambient default for it.
type CreateKeyDTO struct {
	FiduciaryID int64  `json:"fiduciary_id"`
	KeyName     string `json:"key_name"`
	Environment string `json:"environment"`
}

func (dto CreateKeyDTO) Validate() error {
	if dto.FiduciaryID <= 0 {
		return errors.New("fiduciary_id is required")
	}
	if dto.KeyName == "" {
		return errors.New("key name is required")
	}
	if dto.Environment != EnvironmentLive && dto.Environment != EnvironmentTest {
		return errors.New("environment must be live or test")
	}
	return nil
}
