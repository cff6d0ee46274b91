package models

import "github.com/google/uuid"

// SortOrder controls the direction of a list query.
type SortOrder int

const (
	SortUnordered SortOrder = iota
	SortAscending
	SortDescending
)

// Sort fields accepted by list queries.
const (
	SortFieldTitle         = "title"
	SortFieldYearOfRelease = "yearofrelease"
)

// GetAllMoviesOptions carries the filter, sort and pagination parameters of a
// single list query.
type GetAllMoviesOptions struct {
	Title         string // substring filter, empty means no filter
	YearOfRelease *int
	SortField     string // empty means no sort
	SortOrder     SortOrder
	Page          int
	PageSize      int
	UserID        uuid.NullUUID
}

// Offset returns the number of rows skipped before the requested page.
func (o GetAllMoviesOptions) Offset() int {
	return (o.Page - 1) * o.PageSize
}

// MoviePage is one page of a list query plus the totals needed for paging.
type MoviePage struct {
	Movies   []Movie `json:"items"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
	Total    int     `json:"total"`
}

// HasPrev reports whether a page precedes this one.
func (p MoviePage) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether more movies follow this page.
func (p MoviePage) HasNext() bool {
	return p.Total > p.Page*p.PageSize
}

// TotalPages returns the page count for the current page size.
func (p MoviePage) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}
