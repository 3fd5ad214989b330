package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/BradenHooton/dscatalog/internal/cache"
	"github.com/BradenHooton/dscatalog/internal/metrics"
	"github.com/BradenHooton/dscatalog/internal/models"
	"golang.org/x/sync/singleflight"
)

const sharedLoadTimeout = 5 * time.Second

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	List(ctx context.Context, page models.PageRequest) (models.Page[*models.Category], error)
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	Update(ctx context.Context, id int64, category *models.Category) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
}

// CategoryService handles category business logic. Single categories are
// read through the cache; concurrent misses for one id share a database read.
type CategoryService struct {
	repo   CategoryRepository
	cache  cache.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(repo CategoryRepository, c cache.Client, ttl time.Duration, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		repo:   repo,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

func categoryKey(id int64) string {
	return "category:" + strconv.FormatInt(id, 10)
}

// GetCategoryByID returns one category, serving repeated reads from the cache
func (s *CategoryService) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	key := categoryKey(id)

	if raw, err := s.cache.Get(ctx, key); err == nil {
		var c models.Category
		if err := json.Unmarshal(raw, &c); err == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return &c, nil
		}
		s.logger.Warn("discarding undecodable cache entry", slog.String("key", key))
	} else if !errors.Is(err, cache.ErrMiss) {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("cache read failed", slog.String("key", key), slog.Any("error", err))
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	// The shared read outlives any single caller; a cancelled caller stops
	// waiting without failing the others on the same flight.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()

		c, err := s.repo.GetByID(loadCtx, id)
		if err != nil {
			return nil, err
		}
		s.store(loadCtx, c)
		return c, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	v, err := res.Val, res.Err
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFound("Category", "id", id)
		}
		s.logger.Error("failed to get category", slog.Int64("category_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	c := *v.(*models.Category)
	return &c, nil
}

func (s *CategoryService) store(ctx context.Context, c *models.Category) {
	raw, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, categoryKey(c.ID), raw, s.ttl); err != nil {
		s.logger.Warn("cache write failed", slog.Int64("category_id", c.ID), slog.Any("error", err))
	}
}

func (s *CategoryService) evict(ctx context.Context, id int64) {
	if err := s.cache.Delete(ctx, categoryKey(id)); err != nil {
		s.logger.Warn("cache eviction failed", slog.Int64("category_id", id), slog.Any("error", err))
	}
}

// ListCategories retrieves one page of categories
func (s *CategoryService) ListCategories(ctx context.Context, page models.PageRequest) (models.Page[*models.Category], error) {
	categories, err := s.repo.List(ctx, page.Normalize())
	if err != nil {
		if clientError(err) {
			return models.Page[*models.Category]{}, err
		}
		s.logger.Error("failed to list categories", slog.Any("error", err))
		return models.Page[*models.Category]{}, models.ErrInternalServer
	}
	return categories, nil
}

// CreateCategory creates a category. A duplicate name is reported as ErrConflict.
func (s *CategoryService) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	created, err := s.repo.Create(ctx, category)
	if err != nil {
		if clientError(err) {
			return nil, err
		}
		s.logger.Error("failed to create category", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("category created", slog.Int64("category_id", created.ID))
	return created, nil
}

// UpdateCategory renames a category and drops its cache entry
func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, category *models.Category) (*models.Category, error) {
	updated, err := s.repo.Update(ctx, id, category)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFound("Category", "id", id)
		}
		if clientError(err) {
			return nil, err
		}
		s.logger.Error("failed to update category", slog.Int64("category_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.evict(ctx, id)
	s.logger.Info("category updated", slog.Int64("category_id", id))
	return updated, nil
}

// DeleteCategory removes a category. Categories still linked to products
// are reported as ErrIntegrityViolation.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewNotFound("Category", "id", id)
		}
		if clientError(err) {
			return err
		}
		s.logger.Error("failed to delete category", slog.Int64("category_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.evict(ctx, id)
	s.logger.Info("category deleted", slog.Int64("category_id", id))
	return nil
}
