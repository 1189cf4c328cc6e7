package consent

import (
	"encoding/json"
	"strings"
	"time"
)

// Status is a consent lifecycle state. Case-insensitive on the wire,
// canonicalized internally; transitions always operate on the
// canonical value.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusActive    Status = "Active"
	StatusSuspended Status = "Suspended"
	StatusExpired   Status = "Expired"
	StatusRevoked   Status = "Revoked"
)

// Canonical maps any casing of a known status onto its canonical form.
// Unknown statuses pass through untouched so the actionability guard
// can treat them as it always has.
func Canonical(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return StatusPending
	case "active":
		return StatusActive
	case "suspended":
		return StatusSuspended
	case "expired":
		return StatusExpired
	case "revoked":
		return StatusRevoked
	default:
		return Status(raw)
	}
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Canonical(raw)
	return nil
}

// DisplayStatus is the presentation mapping shown to Users: an Active
// consent reads "Accepted", a Suspended one "Rejected". Never used for
// transition logic.
func DisplayStatus(s Status) string {
	switch s {
	case StatusActive:
		return "Accepted"
	case StatusSuspended:
		return "Rejected"
	default:
		return string(s)
	}
}

// Consent is one Fiduciary's request to process one User's data for a
// stated purpose.
type Consent struct {
	ID          int64      `json:"consent_id"`
	UserID      int64      `json:"user_id"`
	FiduciaryID int64      `json:"fiduciary_id"`
	Entity      string     `json:"entity"`
	DataItems   string     `json:"data_items"`
	PurposeCode string     `json:"purpose_code"`
	PurposeText string     `json:"purpose_text"`
	RequestedAt time.Time  `json:"requested_at"`
	Expiry      *time.Time `json:"expiry,omitempty"`
	GrantedAt   *time.Time `json:"granted_at,omitempty"`
	SuspendedAt *time.Time `json:"suspended_at,omitempty"`
	Status      Status     `json:"status"`
	IsRead      int        `json:"is_read"`
}

// CanUserAct reports whether the User-facing accept/reject actions are
// still available. The guard is deliberately "not Active, not
// Suspended, not Revoked" rather than "is Pending": a status outside
// the known set stays actionable, matching long-standing behavior of
// every screen that checks this.
func (c *Consent) CanUserAct() bool {
	s := Canonical(string(c.Status))
	return s != StatusActive && s != StatusSuspended && s != StatusRevoked
}

// Accept transitions the consent to Active. GrantedAt is set exactly
// once, on the transition that produces it; accepting also marks the
// consent read.
func (c *Consent) Accept() error {
	if !c.CanUserAct() {
		return ErrNotActionable
	}
	c.Status = StatusActive
	if c.GrantedAt == nil {
		now := time.Now()
		c.GrantedAt = &now
	}
	c.IsRead = 1
	return nil
}

// Reject transitions the consent to Suspended, the terminal rejection
// state from the User's perspective.
func (c *Consent) Reject() error {
	if !c.CanUserAct() {
		return ErrNotActionable
	}
	c.Status = StatusSuspended
	if c.SuspendedAt == nil {
		now := time.Now()
		c.SuspendedAt = &now
	}
	c.IsRead = 1
	return nil
}

// MarkRead acknowledges the consent without touching its status.
func (c *Consent) MarkRead() {
	c.IsRead = 1
}
