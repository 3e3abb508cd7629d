// Package pagination carries page requests and results for list endpoints.
package pagination

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/tally/pkg/query"
)

// Request selects one page of a sorted result set.
type Request struct {
	Page     int
	PageSize int
	Sort     []query.SortField
}

// FromQuery reads page, page_size and sort from values, clamped to cfg.
func FromQuery(values url.Values, cfg Config) Request {
	page, _ := strconv.Atoi(values.Get("page"))
	size, _ := strconv.Atoi(values.Get("page_size"))

	r := Request{
		Page:     page,
		PageSize: size,
		Sort:     query.ParseSort(values.Get("sort")),
	}
	r.Normalize(cfg)
	return r
}

// Normalize clamps the request into the bounds of cfg.
func (r *Request) Normalize(cfg Config) {
	r.Page = max(r.Page, 1)
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	r.PageSize = min(r.PageSize, cfg.MaxPageSize)
}

// Offset is the number of rows preceding the page.
func (r Request) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// Result is one page of T with totals.
type Result[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewResult wraps data for req given the total row count.
func NewResult[T any](data []T, total int, req Request) Result[T] {
	if data == nil {
		data = []T{}
	}
	pages := 1
	if req.PageSize > 0 && total > 0 {
		pages = (total + req.PageSize - 1) / req.PageSize
	}
	return Result[T]{
		Data:       data,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: pages,
	}
}
