package datatable

import (
	"net/url"
	"strconv"
	"strings"
)

// TrashFilter selects rows by soft-delete state.
type TrashFilter string

const (
	FilterActive  TrashFilter = "active"
	FilterTrashed TrashFilter = "trashed"
	FilterAll     TrashFilter = "all"
)

// ParseFilter maps a query value to a TrashFilter, defaulting to active.
func ParseFilter(s string) TrashFilter {
	switch TrashFilter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterTrashed:
		return FilterTrashed
	case FilterAll:
		return FilterAll
	default:
		return FilterActive
	}
}

const (
	DefaultLength = 10
	MaxLength     = 100
)

// Request is a parsed list query.
type Request struct {
	Draw        int
	Search      string
	Filter      TrashFilter
	OrderColumn int // -1 when absent
	OrderDir    string
	Page        int // 1-based
	Length      int
}

// Offset returns the row offset for the requested page.
func (r Request) Offset() int {
	return (r.Page - 1) * r.Length
}

// ParseRequest reads list parameters from a query string. Both the dotted
// form (order[0].column) and the bracket form (order[0][column]) are accepted.
func ParseRequest(q url.Values) Request {
	req := Request{
		Draw:        atoiOr(q.Get("draw"), 0),
		Search:      strings.TrimSpace(first(q, "search.value", "search[value]", "search")),
		Filter:      ParseFilter(q.Get("filter")),
		OrderColumn: -1,
		OrderDir:    "desc",
		Length:      atoiOr(q.Get("length"), DefaultLength),
	}

	if col := first(q, "order[0].column", "order[0][column]"); col != "" {
		if n, err := strconv.Atoi(col); err == nil {
			// Negative indices count as invalid, which falls back to the key.
			if n < 0 {
				n = int(^uint(0) >> 1)
			}
			req.OrderColumn = n
		}
	}
	if strings.EqualFold(first(q, "order[0].dir", "order[0][dir]"), "asc") {
		req.OrderDir = "asc"
	}

	if req.Length <= 0 {
		req.Length = DefaultLength
	}
	if req.Length > MaxLength {
		req.Length = MaxLength
	}

	req.Page = atoiOr(q.Get("page"), 0)
	if req.Page <= 0 {
		// DataTables clients send a row offset instead of a page.
		if start := atoiOr(q.Get("start"), 0); start > 0 {
			req.Page = start/req.Length + 1
		} else {
			req.Page = 1
		}
	}
	return req
}

func first(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return ""
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}
