package pagination_test

import (
	"net/url"
	"testing"

	"github.com/JaimeStill/tally/pkg/pagination"
)

func TestFromQuery(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 50}

	tests := []struct {
		name     string
		query    string
		page     int
		pageSize int
		offset   int
	}{
		{"defaults", "", 1, 20, 0},
		{"explicit", "page=3&page_size=10", 3, 10, 20},
		{"clamped", "page=-1&page_size=500", 1, 50, 0},
		{"garbage", "page=x&page_size=y", 1, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			r := pagination.FromQuery(values, cfg)
			if r.Page != tt.page || r.PageSize != tt.pageSize {
				t.Errorf("got page=%d size=%d, want page=%d size=%d", r.Page, r.PageSize, tt.page, tt.pageSize)
			}
			if r.Offset() != tt.offset {
				t.Errorf("offset = %d, want %d", r.Offset(), tt.offset)
			}
		})
	}
}

func TestNewResult(t *testing.T) {
	req := pagination.Request{Page: 1, PageSize: 10}

	r := pagination.NewResult[int](nil, 0, req)
	if r.Data == nil || r.TotalPages != 1 {
		t.Errorf("empty result: data=%v pages=%d", r.Data, r.TotalPages)
	}

	r = pagination.NewResult([]int{1, 2}, 21, req)
	if r.TotalPages != 3 {
		t.Errorf("total pages = %d, want 3", r.TotalPages)
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_PAGE_MAX", "5")

	var cfg pagination.Config
	if err := cfg.Finalize(&pagination.Env{MaxPageSize: "TEST_PAGE_MAX"}); err == nil {
		t.Error("expected error when default exceeds max")
	}

	cfg = pagination.Config{DefaultPageSize: 5}
	if err := cfg.Finalize(&pagination.Env{MaxPageSize: "TEST_PAGE_MAX"}); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if cfg.MaxPageSize != 5 {
		t.Errorf("max page size = %d, want 5", cfg.MaxPageSize)
	}

	cfg.Merge(&pagination.Config{MaxPageSize: 8})
	if cfg.MaxPageSize != 8 || cfg.DefaultPageSize != 5 {
		t.Errorf("merge: %+v", cfg)
	}
}
