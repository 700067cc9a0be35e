// Package page implements page-number pagination over a counted result set.
package page

import "fmt"

// Defaults applied when a parameter is omitted.
const (
	DefaultPage = 1
	DefaultSize = 10
)

// Request is a validated page/pageSize pair.
type Request struct {
	page int
	size int
}

// New validates page and size. nil means default; values below 1 are rejected.
// defaultSize <= 0 falls back to DefaultSize.
func New(page, size *int, defaultSize int) (Request, error) {
	if defaultSize <= 0 {
		defaultSize = DefaultSize
	}
	r := Request{page: DefaultPage, size: defaultSize}
	if page != nil {
		if *page < 1 {
			return Request{}, fmt.Errorf("page must be >= 1, got %d", *page)
		}
		r.page = *page
	}
	if size != nil {
		if *size < 1 {
			return Request{}, fmt.Errorf("pageSize must be >= 1, got %d", *size)
		}
		r.size = *size
	}
	return r, nil
}

// Page returns the 1-based page number.
func (r Request) Page() int { return r.page }

// Size returns the page size.
func (r Request) Size() int { return r.size }

// Offset returns (page-1)*size.
func (r Request) Offset() int { return (r.page - 1) * r.size }

// Result is one page of items plus totals.
type Result[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

// NewResult assembles a page. TotalPages is ceil(total/size).
func NewResult[T any](items []T, r Request, total int) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Items:      items,
		Page:       r.page,
		PageSize:   r.size,
		Total:      total,
		TotalPages: TotalPages(total, r.size),
	}
}

// TotalPages returns ceil(total/size), 0 for an empty set.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
