// Package listutil parses the query string of data-grid list views: paging,
// sorting, free-text search and dropdown filters.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
)

// DefaultPerPage is the default number of rows per page.
const DefaultPerPage = 20

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{10, 20, 50, 100}

// Sort directions
const (
	DirAsc  = "asc"
	DirDesc = "desc"
)

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed
	PerPage int
}

// SortParams carries sorting parameters parsed from a request.
type SortParams struct {
	Sort string // column name, "" for the default order
	Dir  string // DirAsc or DirDesc
}

// FilterParams carries the search query and the dropdown filters.
type FilterParams struct {
	Search  string
	Filters map[string]string
}

// Choices lists the accepted values of each dropdown filter.
type Choices map[string][]string

// ListParams combines all list view parameters.
type ListParams struct {
	PageParams
	SortParams
	FilterParams
}

// ParsePageParams extracts page and per_page from URL query values.
// POST: returns valid PageParams with defaults applied
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if !slices.Contains(PerPageOptions, perPage) {
		perPage = DefaultPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseSortParams extracts sort and dir from URL query values.
// POST: Sort is one of allowedColumns or ""; Dir is DirAsc or DirDesc
func ParseSortParams(q url.Values, allowedColumns []string) SortParams {
	sort := q.Get("sort")
	if !slices.Contains(allowedColumns, sort) {
		sort = ""
	}
	dir := q.Get("dir")
	if dir != DirDesc {
		dir = DirAsc
	}
	return SortParams{Sort: sort, Dir: dir}
}

// ParseFilterParams extracts the q search and the dropdown filters. A filter
// value outside its choices is dropped, as if "all" were selected; a nil
// choice list accepts any value.
// POST: Filters holds only keys of choices with an allowed value
func ParseFilterParams(q url.Values, choices Choices) FilterParams {
	fp := FilterParams{
		Search:  q.Get("q"),
		Filters: make(map[string]string),
	}
	for key, allowed := range choices {
		if v := q.Get(key); v != "" && (allowed == nil || slices.Contains(allowed, v)) {
			fp.Filters[key] = v
		}
	}
	return fp
}

// ParseListParams parses all list parameters from URL query values.
func ParseListParams(q url.Values, sortColumns []string, choices Choices) ListParams {
	return ListParams{
		PageParams:   ParsePageParams(q),
		SortParams:   ParseSortParams(q, sortColumns),
		FilterParams: ParseFilterParams(q, choices),
	}
}

// Bool reads a yes/no dropdown filter. It returns nil when the filter is unset.
func (f FilterParams) Bool(key string) *bool {
	v, ok := f.Filters[key]
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

// Int reads a numeric dropdown filter, or 0 when unset.
func (f FilterParams) Int(key string) int {
	n, _ := strconv.Atoi(f.Filters[key])
	return n
}

// Query renders the parameters back into a query string, omitting defaults,
// so the grid can build its paging and sort links.
func (p ListParams) Query() url.Values {
	q := url.Values{}
	if p.Search != "" {
		q.Set("q", p.Search)
	}
	for k, v := range p.Filters {
		q.Set(k, v)
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
		q.Set("dir", p.Dir)
	}
	if p.Page > 1 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage != 0 && p.PerPage != DefaultPerPage {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}
	return q
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPageInfo computes pagination metadata.
// POST: TotalPages >= 1; Page clamped to [1, TotalPages]
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max((total+perPage-1)/perPage, 1)
	page = min(max(page, 1), totalPages)
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// StartRow returns the 1-indexed first row on the page, or 0 when empty.
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow returns the 1-indexed last row on the page.
func (p PageInfo) EndRow() int {
	return min(p.Offset()+p.PerPage, p.Total)
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }
