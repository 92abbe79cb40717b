package pagination

import (
	"net/http"
	"strconv"
)

// Params bound a list query. Offset-based rather than page-based so
// callers can resume scans from an exact position.
type Params struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Response carries one page of results plus the totals a client needs to
// continue paging.
type Response[T any] struct {
	Total   int `json:"total"`
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
	Results []T `json:"results"`
}

// ParseParams extracts limit and offset from the request query, clamped
// to the caller's bounds.
func ParseParams(r *http.Request, defaultLimit, maxLimit int) Params {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// NewResponse wraps one page of results.
func NewResponse[T any](results []T, total int, params Params) Response[T] {
	return Response[T]{
		Total:   total,
		Limit:   params.Limit,
		Offset:  params.Offset,
		Results: results,
	}
}
