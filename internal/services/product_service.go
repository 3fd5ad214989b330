package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/BradenHooton/dscatalog/internal/metrics"
	"github.com/BradenHooton/dscatalog/internal/models"
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	SearchIDs(ctx context.Context, categoryIDs []int64, name string, page models.PageRequest) ([]int64, int64, error)
	FindWithCategories(ctx context.Context, ids []int64) ([]*models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, id int64, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
}

// ProductService handles product business logic
type ProductService struct {
	repo   ProductRepository
	logger *slog.Logger
}

// NewProductService creates a new ProductService
func NewProductService(repo ProductRepository, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		logger: logger,
	}
}

// FindFiltered returns one page of products in any of the categories listed in
// categoryIDsRaw whose name contains name, each with its categories.
//
// The page is selected on an id projection first; the selected products are
// then loaded with their categories in one query and put back in page order.
// Total and page metadata always come from the first step.
func (s *ProductService) FindFiltered(ctx context.Context, categoryIDsRaw, name string, page models.PageRequest) (models.Page[*models.Product], error) {
	categoryIDs, err := models.ParseCategoryIDs(categoryIDsRaw)
	if err != nil {
		return models.Page[*models.Product]{}, err
	}

	filter := models.ProductFilter{
		CategoryIDs: categoryIDs,
		Name:        name,
		Page:        page.Normalize(),
	}

	ids, total, err := s.repo.SearchIDs(ctx, filter.CategoryIDs, filter.Name, filter.Page)
	if err != nil {
		if errors.Is(err, models.ErrInvalidFilter) {
			return models.Page[*models.Product]{}, err
		}
		s.logger.Error("failed to search products", slog.Any("error", err))
		return models.Page[*models.Product]{}, models.ErrInternalServer
	}

	if len(ids) == 0 {
		return models.NewPage([]*models.Product{}, filter.Page, total), nil
	}

	hydrated, err := s.repo.FindWithCategories(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load products", slog.Int("count", len(ids)), slog.Any("error", err))
		return models.Page[*models.Product]{}, models.ErrInternalServer
	}

	content := orderByIDs(ids, hydrated)
	if stale := len(ids) - len(content); stale > 0 {
		metrics.CatalogStaleRows.Add(float64(stale))
		s.logger.Warn("products removed between page selection and load", slog.Int("count", stale))
	}

	return models.NewPage(content, filter.Page, total), nil
}

// orderByIDs arranges products in the order of ids. Ids without a product are skipped.
func orderByIDs(ids []int64, products []*models.Product) []*models.Product {
	byID := make(map[int64]*models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	ordered := make([]*models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

// GetProductByID retrieves a product with its categories
func (s *ProductService) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFound("Product", "id", id)
		}
		s.logger.Error("failed to get product", slog.Int64("product_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return product, nil
}

// CreateProduct creates a product and links its categories.
// Unknown category ids are reported as ErrIntegrityViolation.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if clientError(err) {
			return nil, err
		}
		s.logger.Error("failed to create product", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("product created", slog.Int64("product_id", created.ID))
	return created, nil
}

// UpdateProduct rewrites a product and replaces its category links
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, product *models.Product) (*models.Product, error) {
	updated, err := s.repo.Update(ctx, id, product)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFound("Product", "id", id)
		}
		if clientError(err) {
			return nil, err
		}
		s.logger.Error("failed to update product", slog.Int64("product_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("product updated", slog.Int64("product_id", id))
	return updated, nil
}

// DeleteProduct deletes a product
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewNotFound("Product", "id", id)
		}
		s.logger.Error("failed to delete product", slog.Int64("product_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("product deleted", slog.Int64("product_id", id))
	return nil
}
