package pager

import (
	"slices"
	"sync"

	"github.com/nao1215/crawldash/internal/model"
)

// PageSizeChoices are the page sizes offered by the page-size selector.
var PageSizeChoices = []int{5, 10, 25, 50}

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 10

// MaxPageSize is the largest page size the report API accepts.
const MaxPageSize = 100

// Cursor is a concurrency-safe page cursor.
type Cursor struct {
	mu         sync.Mutex
	page       int
	pageSize   int
	totalCount int
}

// New creates a cursor at the given page and size.
// A page below 1 starts at 1.
func New(page, pageSize int) *Cursor {
	if page < 1 {
		page = 1
	}
	return &Cursor{page: page, pageSize: pageSize}
}

// Page returns the current 1-based page index.
func (c *Cursor) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// PageSize returns the current page size.
func (c *Cursor) PageSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageSize
}

// TotalCount returns the last server-reported total.
func (c *Cursor) TotalCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalCount
}

// TotalPages returns ceil(total/pageSize), at least 1.
func (c *Cursor) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.TotalPages(c.totalCount, c.pageSize)
}

// SetPage moves to page n clamped to [1, TotalPages].
// It reports whether the page changed.
func (c *Cursor) SetPage(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n = max(1, min(n, model.TotalPages(c.totalCount, c.pageSize)))
	if n == c.page {
		return false
	}
	c.page = n
	return true
}

// Next moves one page forward. It reports whether the page changed.
func (c *Cursor) Next() bool {
	return c.SetPage(c.Page() + 1)
}

// Prev moves one page back. It reports whether the page changed.
func (c *Cursor) Prev() bool {
	return c.SetPage(c.Page() - 1)
}

// SetPageSize changes the page size and always resets to page 1.
// It reports whether the cursor changed.
func (c *Cursor) SetPageSize(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := c.pageSize != n || c.page != 1
	c.pageSize = n
	c.page = 1
	return changed
}

// SetTotal records the total count reported by the server.
func (c *Cursor) SetTotal(totalCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalCount = max(0, totalCount)
}

// NextPageSize returns the page-size choice after the current size, or the
// current size if it is the largest choice.
func (c *Cursor) NextPageSize() int {
	size := c.PageSize()
	for _, choice := range PageSizeChoices {
		if choice > size {
			return choice
		}
	}
	return size
}

// PrevPageSize returns the page-size choice before the current size, or the
// current size if it is the smallest choice.
func (c *Cursor) PrevPageSize() int {
	size := c.PageSize()
	for _, choice := range slices.Backward(PageSizeChoices) {
		if choice < size {
			return choice
		}
	}
	return size
}

// ValidPageSize reports whether n is accepted by the report API.
func ValidPageSize(n int) bool {
	return n > 0 && n <= MaxPageSize
}
