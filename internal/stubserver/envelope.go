package stubserver

import (
	"net/http"
	"strconv"

	"github.com/frahmantamala/consent-management/internal/query"
)

// listEnvelope is the flat list response shape.
type listEnvelope struct {
	Items      any              `json:"items"`
	Pagination query.Pagination `json:"pagination"`
	Counts     map[string]int   `json:"counts,omitempty"`
}

// wrappedEnvelope adds the extra data wrapper some endpoints still
// carry. Both shapes stay in the wire surface so clients keep handling
// both.
type wrappedEnvelope struct {
	Data listEnvelope `json:"data"`
}

func paginationFor(total, page, limit int) query.Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return query.Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// pageParams reads page/limit from the request query string.
func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = query.DefaultLimit
	}
	return page, limit
}
