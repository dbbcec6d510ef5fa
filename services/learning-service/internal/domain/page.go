package domain

import "math"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPageNo keeps Offset from overflowing int at any allowed page size.
	MaxPageNo = math.MaxInt / MaxPageSize
)

type PageQuery struct {
	PageNo   int `form:"pageNo"`
	PageSize int `form:"pageSize"`
}

// Normalize fills in defaults and caps the page number and size.
func (q PageQuery) Normalize() PageQuery {
	if q.PageNo < 1 {
		q.PageNo = 1
	}
	if q.PageNo > MaxPageNo {
		q.PageNo = MaxPageNo
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

func (q PageQuery) Offset() int {
	return (q.PageNo - 1) * q.PageSize
}

type Page[T any] struct {
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
	List  []T   `json:"list"`
}

func NewPage[T any](q PageQuery, total int64, list []T) Page[T] {
	if list == nil {
		list = []T{}
	}
	var pages int64
	if q.PageSize > 0 {
		pages = (total + int64(q.PageSize) - 1) / int64(q.PageSize)
	}
	return Page[T]{Total: total, Pages: pages, List: list}
}

// EmptyPage keeps the paging metadata of a query that matched nothing on this page.
func EmptyPage[T any](q PageQuery, total int64) Page[T] {
	return NewPage[T](q, total, nil)
}
