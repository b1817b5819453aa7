package model

// PageRequest selects a window of a filtered submission list.
// Page is 1-based.
type PageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// DefaultPageSize is used when a request does not specify one.
const DefaultPageSize = 10

// MaxPageSize caps a single window so a client cannot fetch the whole
// table in one call.
const MaxPageSize = 100

// Normalize clamps the request into valid bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the 0-based index of the first item in the window.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PageResult is one window of a filtered submission list, newest first.
// TotalCount counts every submission matching the filter, independent of
// the window, so TotalPages reflects the filtered set.
type PageResult struct {
	Items      []*Submission `json:"items"`
	TotalCount int           `json:"total_count"`
	TotalPages int           `json:"total_pages"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
}

// NewPageResult derives TotalPages from the count and window size.
func NewPageResult(items []*Submission, total int, req PageRequest) *PageResult {
	if items == nil {
		items = []*Submission{}
	}
	pages := 0
	if total > 0 {
		pages = (total + req.PageSize - 1) / req.PageSize
	}
	return &PageResult{
		Items:      items,
		TotalCount: total,
		TotalPages: pages,
		Page:       req.Page,
		PageSize:   req.PageSize,
	}
}
