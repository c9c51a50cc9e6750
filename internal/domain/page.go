package domain

import (
	"math"
	"strings"
)

const DefaultPageSize = 20

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// PageRequest is a zero-based page position plus ordering.
type PageRequest struct {
	Page    int
	Size    int
	SortBy  string
	SortDir SortDirection
}

// NewPageRequest clamps page to >= 0 and size to [1, MaxListLimit]. Page is
// also capped so that Offset cannot overflow.
func NewPageRequest(page, size int, sortBy, sortDir string) PageRequest {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxListLimit {
		size = MaxListLimit
	}
	if maxPage := math.MaxInt / size; page > maxPage {
		page = maxPage
	}
	dir := SortDesc
	if strings.EqualFold(sortDir, string(SortAsc)) {
		dir = SortAsc
	}
	return PageRequest{Page: page, Size: size, SortBy: sortBy, SortDir: dir}
}

// Offset saturates at math.MaxInt instead of wrapping.
func (p PageRequest) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}

// MapPage converts page content while keeping position and totals.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	content := make([]U, 0, len(p.Content))
	for _, item := range p.Content {
		content = append(content, fn(item))
	}
	return Page[U]{
		Content:       content,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	}
}

// Paginate slices an already materialised result set. An offset past the end
// yields empty content; TotalElements is always the full size of all.
func Paginate[T any](all []T, req PageRequest) Page[T] {
	total := len(all)
	start := req.Offset()
	if start < 0 || start > total {
		start = total
	}
	end := start
	if req.Size > 0 {
		end = total
		if req.Size < total-start {
			end = start + req.Size
		}
	}
	content := make([]T, end-start)
	copy(content, all[start:end])
	return NewPage(content, req, int64(total))
}
