package stats

import (
	"strings"

	"github.com/frahmantamala/consent-management/internal/consent"
)

// StatusCounts is the dashboard summary derived from a consent
// collection. Total counts every consent, including statuses outside
// the four named buckets, so total == pending+active+suspended+expired
// is a property of the source data, not something this engine
// enforces.
type StatusCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Active    int `json:"active"`
	Suspended int `json:"suspended"`
	Expired   int `json:"expired"`
}

// Aggregate reduces a complete in-memory collection. Only use this
// when the slice really is the whole collection in scope; for a
// paginated fetch the page in hand is just a window and the
// server-supplied counts must win (see Resolve).
func Aggregate(consents []consent.Consent) StatusCounts {
	counts := StatusCounts{Total: len(consents)}
	for i := range consents {
		switch consent.Canonical(string(consents[i].Status)) {
		case consent.StatusPending:
			counts.Pending++
		case consent.StatusActive:
			counts.Active++
		case consent.StatusSuspended:
			counts.Suspended++
		case consent.StatusExpired:
			counts.Expired++
		}
	}
	return counts
}

// FromServer maps a server-supplied counts payload (keyed by status
// name, case-insensitive) onto StatusCounts.
func FromServer(counts map[string]int) *StatusCounts {
	if counts == nil {
		return nil
	}
	out := &StatusCounts{}
	for name, n := range counts {
		switch strings.ToLower(name) {
		case "total":
			out.Total = n
		case "pending":
			out.Pending = n
		case "active":
			out.Active = n
		case "suspended":
			out.Suspended = n
		case "expired":
			out.Expired = n
		}
	}
	return out
}

// Resolve picks the authoritative counts for a paginated consent view:
// the server summary when present, else a client-side reduce over the
// loaded page (knowingly page-scoped).
func Resolve(serverCounts map[string]int, page []consent.Consent) StatusCounts {
	if fromServer := FromServer(serverCounts); fromServer != nil {
		return *fromServer
	}
	return Aggregate(page)
}

// PlatformMetrics is the admin dashboard headline. Always
// server-supplied via GET /platform-metrics, never recomputed
// client-side.
type PlatformMetrics struct {
	Users       int `json:"users"`
	Fiduciaries int `json:"fiduciaries"`
	Admins      int `json:"admins"`
	Consents    int `json:"consents"`
}

// PageStatusCounts reduces status occurrences over the currently
// loaded page of any listed resource (the fiduciary-list stat chips).
// Intentionally approximate under pagination.
func PageStatusCounts[T any](items []T, status func(T) string) map[string]int {
	counts := make(map[string]int, 4)
	for _, item := range items {
		counts[strings.ToLower(status(item))]++
	}
	return counts
}
