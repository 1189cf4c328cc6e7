package notification

import (
	"sort"
	"time"

	"github.com/frahmantamala/consent-management/internal/consent"
)

// Item is one actionable or informational entry on the User's
// notification list, derived from a consent. The projector owns no
// store: items are always re-derived from the consent fetch.
type Item struct {
	ConsentID   int64          `json:"consent_id"`
	Entity      string         `json:"entity"`
	DataItems   string         `json:"data_items"`
	PurposeText string         `json:"purpose_text"`
	RequestedAt time.Time      `json:"requested_at"`
	Status      consent.Status `json:"status"`
	IsRead      int            `json:"is_read"`
	Actionable  bool           `json:"actionable"`
}

// Project orders a User's consents into notification items, newest
// request first.
func Project(consents []consent.Consent) []Item {
	items := make([]Item, 0, len(consents))
	for i := range consents {
		c := &consents[i]
		items = append(items, Item{
			ConsentID:   c.ID,
			Entity:      c.Entity,
			DataItems:   c.DataItems,
			PurposeText: c.PurposeText,
			RequestedAt: c.RequestedAt,
			Status:      c.Status,
			IsRead:      c.IsRead,
			Actionable:  c.CanUserAct(),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RequestedAt.After(items[j].RequestedAt)
	})
	return items
}

// UnreadPendingCount is the badge number: unread consents still
// awaiting a decision.
func UnreadPendingCount(consents []consent.Consent) int {
	count := 0
	for i := range consents {
		if consents[i].IsRead == 0 && consent.Canonical(string(consents[i].Status)) == consent.StatusPending {
			count++
		}
	}
	return count
}
