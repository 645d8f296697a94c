// Package pagination parses page/per_page query parameters and describes
// the resulting page in list responses.
package pagination

import (
	"net/http"
	"net/url"
	"strconv"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params is a 1-based page of PerPage rows.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// New returns Params for page and perPage. A page below 1 becomes 1, a
// non-positive size becomes DefaultPerPage and sizes above MaxPerPage are
// capped.
func New(page, perPage int) Params {
	switch {
	case perPage <= 0:
		perPage = DefaultPerPage
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}
	return Params{Page: max(page, 1), PerPage: perPage}
}

// DefaultParams returns the first page with the default size.
func DefaultParams() Params {
	return New(1, DefaultPerPage)
}

// FromQuery reads page and per_page. "limit" is accepted as an alias for
// per_page. Malformed values are ignored.
func FromQuery(q url.Values) Params {
	size := q.Get("per_page")
	if size == "" {
		size = q.Get("limit")
	}
	return New(atoi(q.Get("page")), atoi(size))
}

// FromRequest is FromQuery over the request URL.
func FromRequest(r *http.Request) Params {
	return FromQuery(r.URL.Query())
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Limit is the number of rows to fetch.
func (p Params) Limit() int {
	if p.PerPage <= 0 {
		return DefaultPerPage
	}
	return p.PerPage
}

// Offset is the number of rows before this page.
func (p Params) Offset() int {
	return (max(p.Page, 1) - 1) * p.Limit()
}

// Meta describes a page of results inside a list response.
type Meta struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Meta describes p within total matching rows.
func (p Params) Meta(total int) Meta {
	size := p.Limit()
	pages := (total + size - 1) / size
	return Meta{
		Page:       p.Page,
		PerPage:    size,
		Total:      total,
		TotalPages: pages,
		HasNext:    p.Page < pages,
		HasPrev:    p.Page > 1,
	}
}
