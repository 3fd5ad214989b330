package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/BradenHooton/dscatalog/internal/models"
)

// PageResponse is the JSON envelope of a paged listing
type PageResponse[T any] struct {
	Content          []T   `json:"content"`
	TotalElements    int64 `json:"total_elements"`
	TotalPages       int   `json:"total_pages"`
	Number           int   `json:"number"`
	Size             int   `json:"size"`
	NumberOfElements int   `json:"number_of_elements"`
	First            bool  `json:"first"`
	Last             bool  `json:"last"`
	Empty            bool  `json:"empty"`
}

func toPageResponse[T, U any](page models.Page[T], convert func(T) U) PageResponse[U] {
	content := make([]U, 0, len(page.Content))
	for _, item := range page.Content {
		content = append(content, convert(item))
	}
	return PageResponse[U]{
		Content:          content,
		TotalElements:    page.TotalElements,
		TotalPages:       page.TotalPages,
		Number:           page.Number,
		Size:             page.Size,
		NumberOfElements: page.NumberOfElements,
		First:            page.First,
		Last:             page.Last,
		Empty:            page.Empty,
	}
}

// parsePageRequest reads page, size and sort from the query string.
// sort may repeat and has the form property[,asc|desc].
func parsePageRequest(r *http.Request) (models.PageRequest, error) {
	q := r.URL.Query()

	page, err := queryInt(q.Get("page"), 0)
	if err != nil || page < 0 {
		return models.PageRequest{}, fmt.Errorf("%w: page must be a non-negative integer", models.ErrInvalidFilter)
	}

	size, err := queryInt(q.Get("size"), models.DefaultPageSize)
	if err != nil || size <= 0 {
		return models.PageRequest{}, fmt.Errorf("%w: size must be a positive integer", models.ErrInvalidFilter)
	}

	var sorts []models.SortOrder
	for _, raw := range q["sort"] {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		prop, dir, _ := strings.Cut(raw, ",")
		direction, ok := models.ParseSortDirection(dir)
		if !ok {
			return models.PageRequest{}, fmt.Errorf("%w: sort direction %q", models.ErrInvalidFilter, dir)
		}
		sorts = append(sorts, models.SortOrder{Property: strings.TrimSpace(prop), Direction: direction})
	}

	return models.NewPageRequest(page, size, sorts...), nil
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
