package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/BradenHooton/dscatalog/internal/models"
	pkghttp "github.com/BradenHooton/dscatalog/pkg/http"
)

// CategoryService defines the interface for category business logic
type CategoryService interface {
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context, page models.PageRequest) (models.Page[*models.Category], error)
	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int64, category *models.Category) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// CategoryHandler handles category HTTP requests
type CategoryHandler struct {
	service CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(service CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// CategoryRequest is the body of category create and update
type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// CategoryResponse represents a category in the HTTP response
type CategoryResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func categoryModelToResponse(c *models.Category) *CategoryResponse {
	resp := &CategoryResponse{ID: c.ID, Name: c.Name}
	if !c.CreatedAt.IsZero() {
		resp.CreatedAt = c.CreatedAt.Format(time.RFC3339)
	}
	if !c.UpdatedAt.IsZero() {
		resp.UpdatedAt = c.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}

// ListCategories returns one page of categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	page, err := parsePageRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	categories, err := h.service.ListCategories(r.Context(), page)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toPageResponse(categories, categoryModelToResponse))
}

// GetCategory returns one category
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid category ID")
		return
	}

	category, err := h.service.GetCategoryByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, categoryModelToResponse(category))
}

// CreateCategory creates a category
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.service.CreateCategory(r.Context(), &models.Category{Name: strings.TrimSpace(req.Name)})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, categoryModelToResponse(created))
}

// UpdateCategory renames a category
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid category ID")
		return
	}

	var req CategoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateCategory(r.Context(), id, &models.Category{Name: strings.TrimSpace(req.Name)})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, categoryModelToResponse(updated))
}

// DeleteCategory deletes a category that no product references
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid category ID")
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
