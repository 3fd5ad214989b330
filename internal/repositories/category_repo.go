package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/dscatalog/internal/database"
	"github.com/BradenHooton/dscatalog/internal/models"
	"github.com/jackc/pgx/v5"
)

type CategoryRepository struct {
	db *database.DB
}

func NewCategoryRepository(db *database.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `c.id, c.name, c.created_at, c.updated_at`

var categorySortColumns = map[string]string{
	"id":   "c.id",
	"name": "c.name",
}

func scanCategoryRow(scanner rowScanner) (*models.Category, error) {
	var c models.Category
	if err := scanner.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &c, nil
}

func scanCategoryRows(rows pgx.Rows) ([]*models.Category, error) {
	defer rows.Close()

	categories := make([]*models.Category, 0)

	for rows.Next() {
		c, err := scanCategoryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}

	return categories, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM tb_category c WHERE c.id = $1`
	return scanCategoryRow(r.db.Conn(ctx).QueryRow(ctx, query, id))
}

// GetByNames resolves categories by exact name, in no particular order
func (r *CategoryRepository) GetByNames(ctx context.Context, names []string) ([]*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM tb_category c WHERE c.name = ANY($1)`

	rows, err := r.db.Conn(ctx).Query(ctx, query, names)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories by name: %w", err)
	}

	return scanCategoryRows(rows)
}

func (r *CategoryRepository) List(ctx context.Context, page models.PageRequest) (models.Page[*models.Category], error) {
	order, err := orderBy(page.Sort, categorySortColumns, "c.id")
	if err != nil {
		return models.Page[*models.Category]{}, err
	}

	batch := &pgx.Batch{}
	batch.Queue(`SELECT COUNT(*) FROM tb_category`)
	batch.Queue(`SELECT `+categoryColumns+` FROM tb_category c `+order+` LIMIT $1 OFFSET $2`, page.Size, page.Offset())

	results := r.db.Conn(ctx).SendBatch(ctx, batch)
	defer results.Close()

	var total int64
	if err := results.QueryRow().Scan(&total); err != nil {
		return models.Page[*models.Category]{}, fmt.Errorf("failed to count categories: %w", err)
	}

	rows, err := results.Query()
	if err != nil {
		return models.Page[*models.Category]{}, fmt.Errorf("failed to query categories: %w", err)
	}

	categories, err := scanCategoryRows(rows)
	if err != nil {
		return models.Page[*models.Category]{}, err
	}

	return models.NewPage(categories, page, total), nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	query := `
		INSERT INTO tb_category (name, created_at, updated_at)
		VALUES ($1, $2, $2)
		RETURNING id, name, created_at, updated_at
	`

	created, err := scanCategoryRow(r.db.Conn(ctx).QueryRow(ctx, query, category.Name, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return created, nil
}

func (r *CategoryRepository) Update(ctx context.Context, id int64, category *models.Category) (*models.Category, error) {
	query := `
		UPDATE tb_category SET name = $1, updated_at = $2
		WHERE id = $3
		RETURNING id, name, created_at, updated_at
	`

	updated, err := scanCategoryRow(r.db.Conn(ctx).QueryRow(ctx, query, category.Name, time.Now(), id))
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return updated, nil
}

// Delete removes a category. Categories still linked to products surface as ErrIntegrityViolation.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM tb_category WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
