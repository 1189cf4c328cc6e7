package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Resource names key the cache; one mutation invalidates every filter
// variant of its resource.
const (
	ResourceUserConsents      = "user-consents"
	ResourceConsentRequests   = "consent-requests"
	ResourceNotifications     = "notifications"
	ResourceWebhooks          = "webhooks"
	ResourceAPIKeys           = "api-keys"
	ResourcePurposes          = "purpose-cards"
	ResourceEvents            = "fiduciary-events"
	ResourceFeedback          = "feedbacks"
	ResourceFiduciaries       = "fiduciaries"
	ResourceUsersWithRoles    = "users-with-roles"
	ResourcePlatformMetrics   = "platform-metrics"
	ResourceProfile           = "user-profile"
	ResourceDPOs              = "dpo"
	ResourceFiduciaryDetails  = "fiduciary-details"
)

const DefaultLimit = 10

// ListParams is the shared input of every paginated list fetch. The
// zero value is usable; Normalize fills defaults.
type ListParams struct {
	Page        int
	Limit       int
	SearchTerm  string
	Status      string
	Category    string
	FiduciaryID int64
	DateFrom    string
	DateTo      string
}

func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	p.SearchTerm = strings.TrimSpace(p.SearchTerm)
	return p
}

// WithSearch sets the effective (already debounced) search term and
// resets to the first page, as any filter change must.
func (p ListParams) WithSearch(term string) ListParams {
	p.SearchTerm = term
	p.Page = 1
	return p
}

func (p ListParams) WithStatus(status string) ListParams {
	p.Status = status
	p.Page = 1
	return p
}

func (p ListParams) WithDateRange(from, to string) ListParams {
	p.DateFrom = from
	p.DateTo = to
	p.Page = 1
	return p
}

func (p ListParams) WithPage(page int) ListParams {
	p.Page = page
	return p
}

// Values renders the params as backend query parameters.
func (p ListParams) Values() url.Values {
	p = p.Normalize()

	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("limit", strconv.Itoa(p.Limit))
	if p.SearchTerm != "" {
		v.Set("searchterm", p.SearchTerm)
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	if p.Category != "" {
		v.Set("category", p.Category)
	}
	if p.FiduciaryID != 0 {
		v.Set("fiduciaryId", strconv.FormatInt(p.FiduciaryID, 10))
	}
	if p.DateFrom != "" {
		v.Set("dateFrom", p.DateFrom)
	}
	if p.DateTo != "" {
		v.Set("dateTo", p.DateTo)
	}
	return v
}

// CacheKey is the canonical (resource, normalized filters) identity.
// Identical keys share one in-flight request and one cached result.
func (p ListParams) CacheKey(resource string) string {
	p = p.Normalize()

	var b strings.Builder
	b.WriteString(resource)
	fmt.Fprintf(&b, "|page=%d|limit=%d", p.Page, p.Limit)
	if p.SearchTerm != "" {
		fmt.Fprintf(&b, "|q=%s", strings.ToLower(p.SearchTerm))
	}
	if p.Status != "" {
		fmt.Fprintf(&b, "|status=%s", strings.ToLower(p.Status))
	}
	if p.Category != "" {
		fmt.Fprintf(&b, "|category=%s", strings.ToLower(p.Category))
	}
	if p.FiduciaryID != 0 {
		fmt.Fprintf(&b, "|fiduciary=%d", p.FiduciaryID)
	}
	if p.DateFrom != "" {
		fmt.Fprintf(&b, "|from=%s", p.DateFrom)
	}
	if p.DateTo != "" {
		fmt.Fprintf(&b, "|to=%s", p.DateTo)
	}
	return b.String()
}

// Key builds a cache key for non-list lookups (details, profile).
func Key(resource string, parts ...string) string {
	if len(parts) == 0 {
		return resource
	}
	return resource + "|" + strings.Join(parts, "|")
}
