package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Page     int
	PageSize int
	Cursor   string
}

// FromContext extracts pagination parameters from the echo context.
// Page numbers are 1-based.
func FromContext(c echo.Context) Params {
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	if size <= 0 {
		size, _ = strconv.Atoi(c.QueryParam("limit"))
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	return Params{Page: page, PageSize: size, Cursor: c.QueryParam("cursor")}
}

// Pager describes offset paging over a locally held, already filtered list.
type Pager struct {
	Page     int
	PageSize int
	Total    int
}

// TotalPages returns ceil(Total / PageSize).
func (p Pager) TotalPages() int {
	if p.PageSize <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// HasNext returns true if there is a page after the current one.
func (p Pager) HasNext() bool {
	return p.Page < p.TotalPages()
}

// HasPrevious returns true if there is a page before the current one.
func (p Pager) HasPrevious() bool {
	return p.Page > 1
}

// Offset returns the index of the first item on the current page.
func (p Pager) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Clamp moves Page inside [1, TotalPages]. An empty list stays on page 1.
func (p Pager) Clamp() Pager {
	last := p.TotalPages()
	if last < 1 {
		last = 1
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > last {
		p.Page = last
	}
	return p
}

// Window returns the items that fall on the given 1-based page.
func Window[T any](items []T, page, size int) []T {
	if size <= 0 || page < 1 {
		return nil
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Response wraps a paginated portal response.
type Response struct {
	Data        interface{} `json:"data"`
	Page        int         `json:"page"`
	PageSize    int         `json:"page_size"`
	Total       int         `json:"total"`
	TotalPages  int         `json:"total_pages"`
	HasNext     bool        `json:"has_next"`
	HasPrevious bool        `json:"has_previous"`
	NextCursor  string      `json:"next_cursor,omitempty"`
}

func NewResponse(data interface{}, p Pager) *Response {
	return &Response{
		Data:        data,
		Page:        p.Page,
		PageSize:    p.PageSize,
		Total:       p.Total,
		TotalPages:  p.TotalPages(),
		HasNext:     p.HasNext(),
		HasPrevious: p.HasPrevious(),
	}
}
