package database

// Pagination describes one clamped page of a result set. Pages are
// 1-based. Out-of-range requests clamp to the nearest valid page rather
// than failing: below 1 becomes page 1, past the end becomes the last
// page. An empty result set still reports one (empty) page.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	PageCount  int   `json:"page_count"`
	TotalItems int64 `json:"total_items"`
}

// Paginate clamps the requested page against the total item count and
// returns the resulting page descriptor.
func Paginate(requested, pageSize int, total int64) Pagination {
	if pageSize < 1 {
		pageSize = 1
	}
	pageCount := int((total + int64(pageSize) - 1) / int64(pageSize))
	if pageCount < 1 {
		pageCount = 1
	}
	page := requested
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		PageCount:  pageCount,
		TotalItems: total,
	}
}

// Offset returns the row offset for the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}
