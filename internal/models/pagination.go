package models

import (
	"math"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps Page*MaxPageSize far below MaxInt64.
	MaxPage = math.MaxInt32
)

type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// ParseSortDirection accepts "asc"/"desc" in any case. Empty means ascending.
func ParseSortDirection(s string) (SortDirection, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC":
		return SortAsc, true
	case "DESC":
		return SortDesc, true
	}
	return "", false
}

type SortOrder struct {
	Property  string
	Direction SortDirection
}

// PageRequest is a zero-based page selection with optional sort orders.
type PageRequest struct {
	Page int
	Size int
	Sort []SortOrder
}

// NewPageRequest builds a PageRequest, clamping page and size into range.
func NewPageRequest(page, size int, sort ...SortOrder) PageRequest {
	return PageRequest{Page: page, Size: size, Sort: sort}.Normalize()
}

// Normalize clamps the page into [0, MaxPage] and the size into [1, MaxPageSize].
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows before the page. It saturates at MaxInt64
// instead of wrapping for requests that were never normalized.
func (p PageRequest) Offset() int64 {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if int64(p.Page) > math.MaxInt64/int64(p.Size) {
		return math.MaxInt64
	}
	return int64(p.Page) * int64(p.Size)
}

// Page is one slice of an ordered result set plus the metadata of the whole set.
type Page[T any] struct {
	Content          []T
	TotalElements    int64
	TotalPages       int
	Number           int
	Size             int
	NumberOfElements int
	First            bool
	Last             bool
	Empty            bool
}

// NewPage assembles a page. A nil content slice is replaced with an empty one.
func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}

	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}

	return Page[T]{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Number:           req.Page,
		Size:             req.Size,
		NumberOfElements: len(content),
		First:            req.Page == 0,
		Last:             int64(req.Page) >= int64(totalPages)-1,
		Empty:            len(content) == 0,
	}
}

// MapPage converts the content of a page while keeping its metadata.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	content := make([]U, 0, len(p.Content))
	for _, item := range p.Content {
		content = append(content, fn(item))
	}

	return Page[U]{
		Content:          content,
		TotalElements:    p.TotalElements,
		TotalPages:       p.TotalPages,
		Number:           p.Number,
		Size:             p.Size,
		NumberOfElements: p.NumberOfElements,
		First:            p.First,
		Last:             p.Last,
		Empty:            p.Empty,
	}
}
