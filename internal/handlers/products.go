package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/BradenHooton/dscatalog/internal/models"
	pkghttp "github.com/BradenHooton/dscatalog/pkg/http"
)

// ProductService defines the interface for product business logic
type ProductService interface {
	FindFiltered(ctx context.Context, categoryIDsRaw, name string, page models.PageRequest) (models.Page[*models.Product], error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, product *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// ProductHandler handles product HTTP requests
type ProductHandler struct {
	service ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(service ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// ProductRequest is the body of product create and update
type ProductRequest struct {
	Name        string     `json:"name" validate:"required,min=3,max=80"`
	Description string     `json:"description" validate:"max=10000"`
	Price       float64    `json:"price" validate:"gt=0"`
	ImgURL      string     `json:"img_url" validate:"omitempty,url"`
	Date        *time.Time `json:"date"`
	CategoryIDs []int64    `json:"category_ids" validate:"required,min=1,dive,gt=0"`
}

// ProductResponse represents a product with its categories
type ProductResponse struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       float64             `json:"price"`
	ImgURL      string              `json:"img_url"`
	Date        *time.Time          `json:"date,omitempty"`
	Categories  []*CategoryResponse `json:"categories"`
}

func productModelToResponse(p *models.Product) *ProductResponse {
	categories := make([]*CategoryResponse, 0, len(p.Categories))
	for i := range p.Categories {
		categories = append(categories, &CategoryResponse{ID: p.Categories[i].ID, Name: p.Categories[i].Name})
	}
	return &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImgURL:      p.ImgURL,
		Date:        p.Date,
		Categories:  categories,
	}
}

func (req *ProductRequest) toModel() *models.Product {
	categories := make([]models.Category, 0, len(req.CategoryIDs))
	for _, id := range req.CategoryIDs {
		categories = append(categories, models.Category{ID: id})
	}
	return &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		ImgURL:      strings.TrimSpace(req.ImgURL),
		Date:        req.Date,
		Categories:  categories,
	}
}

// ListProducts returns one page of products filtered by category and name
//
// @Summary Search products
// @Param categoryId query string false "Comma-separated category ids, 0 for all"
// @Param name query string false "Case-insensitive name fragment"
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Param sort query string false "property,direction"
// @Produce json
// @Success 200 {object} PageResponse[ProductResponse]
// @Failure 400 {object} ErrorResponse
// @Router /products [get]
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := parsePageRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	q := r.URL.Query()
	categoryIDs := q.Get("categoryId")
	if categoryIDs == "" {
		categoryIDs = models.UnfilteredCategories
	}

	products, err := h.service.FindFiltered(r.Context(), categoryIDs, strings.TrimSpace(q.Get("name")), page)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toPageResponse(products, productModelToResponse))
}

// GetProduct returns one product with its categories
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid product ID")
		return
	}

	product, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, productModelToResponse(product))
}

// CreateProduct creates a product
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.service.CreateProduct(r.Context(), req.toModel())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, productModelToResponse(created))
}

// UpdateProduct replaces a product and its categories
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid product ID")
		return
	}

	var req ProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateProduct(r.Context(), id, req.toModel())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, productModelToResponse(updated))
}

// DeleteProduct deletes a product
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid product ID")
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
