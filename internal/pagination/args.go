// Package pagination computes page windows over scene lists and renders the
// pagination widget shown under them.
package pagination

import (
	"net/url"
	"strconv"
)

const (
	PageParam    = "page"
	PerPageParam = "per_page"
	DefaultPage  = 1
)

// Args are the pagination query arguments of one request.
type Args struct {
	Page    int
	PerPage int

	// Explicit is set when the request carried page or per_page at all.
	Explicit bool
}

// ParseArgs reads page and per_page from the query string.
//
// Missing, non-numeric or non-positive values fall back to the defaults.
func ParseArgs(q url.Values, defaultPerPage int) Args {
	_, hasPage := q[PageParam]
	_, hasPerPage := q[PerPageParam]

	return Args{
		Page:     atoiDefault(q.Get(PageParam), DefaultPage),
		PerPage:  atoiDefault(q.Get(PerPageParam), defaultPerPage),
		Explicit: hasPage || hasPerPage,
	}
}

// Window returns the half-open range [start, end) of items shown on the
// page, clamped to [0, total]. A page past the end yields start == end.
func (a Args) Window(total int) (start, end int) {
	if total <= 0 {
		return 0, 0
	}
	start = clamp((a.Page-1)*a.PerPage, total)
	end = clamp(a.Page*a.PerPage, total)
	return start, end
}

// Offset is the index of the first item on the page.
func (a Args) Offset() int {
	return (a.Page - 1) * a.PerPage
}

func clamp(n, total int) int {
	if n < 0 {
		return 0
	}
	if n > total {
		return total
	}
	return n
}

const maxArg = 1 << 30

// atoiDefault parses a positive integer no larger than maxArg, returning
// def for anything else.
func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxArg {
		return def
	}
	return n
}
