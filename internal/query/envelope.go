package query

import (
	"encoding/json"
	"fmt"
)

// Pagination is the normalized page descriptor. Fields the backend
// omits are derived from total and limit.
type Pagination struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

func (p *Pagination) normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.TotalPages <= 0 && p.Total > 0 {
		p.TotalPages = (p.Total + p.Limit - 1) / p.Limit
	}
	p.HasNext = p.Page < p.TotalPages
	p.HasPrev = p.Page > 1
}

// Page is one canonical window of a listed resource. Counts carries a
// server-supplied status summary when the endpoint provides one; it is
// nil otherwise.
type Page[T any] struct {
	Items      []T            `json:"items"`
	Pagination Pagination     `json:"pagination"`
	Counts     map[string]int `json:"counts,omitempty"`
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Items      json.RawMessage `json:"items"`
	Pagination *Pagination     `json:"pagination"`
	Counts     map[string]int  `json:"counts"`
}

// DecodePage accepts either the flat list envelope or the legacy shape
// with one extra data wrapper, and normalizes to Page exactly once at
// the boundary. Call sites never branch on wire shape.
func DecodePage[T any](data []byte) (*Page[T], error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode list envelope: %w", err)
	}

	// Legacy endpoints wrap the whole envelope in "data".
	if env.Items == nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, &env); err != nil {
			return nil, fmt.Errorf("decode nested list envelope: %w", err)
		}
	}

	page := &Page[T]{Counts: env.Counts}
	if env.Items != nil {
		if err := json.Unmarshal(env.Items, &page.Items); err != nil {
			return nil, fmt.Errorf("decode list items: %w", err)
		}
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	if env.Pagination != nil {
		page.Pagination = *env.Pagination
	} else {
		page.Pagination.Total = len(page.Items)
	}
	page.Pagination.normalize()

	return page, nil
}
