// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"github.com/danielhkuo/quickly-poll/apperr"
	"github.com/danielhkuo/quickly-poll/models"
)

// Pager validates paging parameters and computes page metadata.
type Pager struct {
	DefaultSize int
	MaxSize     int
}

// Validate rejects negative pages and sizes outside [0, MaxSize].
func (p Pager) Validate(page, size int) error {
	if page < 0 {
		return apperr.InvalidRequest("Page number cannot be less than zero")
	}
	if size < 0 {
		return apperr.InvalidRequest("Page size cannot be less than zero")
	}
	if size > p.MaxSize {
		return apperr.InvalidRequest("Page size must not be greater than %d", p.MaxSize)
	}
	return nil
}

// PageMeta is the paging half of a PagedResponse.
type PageMeta struct {
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
	Last          bool
}

// Meta derives total pages and the last-page flag. A zero size counts as a
// single page.
func (p Pager) Meta(page, size int, total int64) PageMeta {
	totalPages := 1
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return PageMeta{
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
		Last:          page >= totalPages-1,
	}
}

// BuildPage assembles the response envelope. A nil items slice is rendered as
// an empty list.
func BuildPage[T any](items []T, pageIndex, pageSize int, totalElements int64, totalPages int, isLast bool) models.PagedResponse[T] {
	if items == nil {
		items = []T{}
	}
	return models.PagedResponse[T]{
		Content:       items,
		Page:          pageIndex,
		Size:          pageSize,
		TotalElements: totalElements,
		TotalPages:    totalPages,
		Last:          isLast,
	}
}

func pageOf[T any](items []T, m PageMeta) models.PagedResponse[T] {
	return BuildPage(items, m.Page, m.Size, m.TotalElements, m.TotalPages, m.Last)
}
