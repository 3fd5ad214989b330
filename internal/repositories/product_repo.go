package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/dscatalog/internal/database"
	"github.com/BradenHooton/dscatalog/internal/models"
	"github.com/jackc/pgx/v5"
)

type ProductRepository struct {
	db *database.DB
}

func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

var productSortColumns = map[string]string{
	"id":    "p.id",
	"name":  "p.name",
	"price": "p.price",
	"date":  "p.date",
}

// productFilterClause matches products that belong to any of the categories in
// $1 (all products when $1 is empty) and whose name contains $2, case-insensitively.
// The EXISTS semi-join yields each product at most once however many of its
// categories match.
const productFilterClause = `
	WHERE (COALESCE(cardinality($1::bigint[]), 0) = 0 OR EXISTS (
		SELECT 1 FROM tb_product_category pc
		WHERE pc.product_id = p.id AND pc.category_id = ANY($1::bigint[])
	))
	AND p.name ILIKE $2
`

// SearchIDs returns the ids of one page of products matching the filter, in
// sort order, together with the total number of matching products.
func (r *ProductRepository) SearchIDs(ctx context.Context, categoryIDs []int64, name string, page models.PageRequest) ([]int64, int64, error) {
	order, err := orderBy(page.Sort, productSortColumns, "p.id")
	if err != nil {
		return nil, 0, err
	}

	if categoryIDs == nil {
		categoryIDs = []int64{}
	}
	pattern := likeContains(name)

	batch := &pgx.Batch{}
	batch.Queue(`SELECT COUNT(*) FROM tb_product p `+productFilterClause, categoryIDs, pattern)
	batch.Queue(`SELECT p.id FROM tb_product p `+productFilterClause+order+` LIMIT $3 OFFSET $4`,
		categoryIDs, pattern, page.Size, page.Offset())

	results := r.db.Conn(ctx).SendBatch(ctx, batch)
	defer results.Close()

	var total int64
	if err := results.QueryRow().Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	rows, err := results.Query()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query product ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan product ids: %w", err)
	}

	return ids, total, nil
}

// FindWithCategories loads the products with the given ids and their categories
// in one query. Ids that no longer exist are skipped. The result is ordered by id.
func (r *ProductRepository) FindWithCategories(ctx context.Context, ids []int64) ([]*models.Product, error) {
	if len(ids) == 0 {
		return []*models.Product{}, nil
	}

	query := `
		SELECT p.id, p.name, p.description, p.price, p.img_url, p.date, p.created_at, p.updated_at,
		       c.id, c.name, c.created_at, c.updated_at
		FROM tb_product p
		LEFT JOIN tb_product_category pc ON pc.product_id = p.id
		LEFT JOIN tb_category c ON c.id = pc.category_id
		WHERE p.id = ANY($1)
		ORDER BY p.id, c.id
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0, len(ids))
	var current *models.Product

	for rows.Next() {
		var p models.Product
		var date *time.Time
		var catID *int64
		var catName *string
		var catCreated, catUpdated *time.Time

		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.ImgURL, &date, &p.CreatedAt, &p.UpdatedAt,
			&catID, &catName, &catCreated, &catUpdated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}

		if current == nil || current.ID != p.ID {
			p.Date = date
			p.Categories = []models.Category{}
			current = &p
			products = append(products, current)
		}

		if catID != nil {
			c := models.Category{ID: *catID}
			if catName != nil {
				c.Name = *catName
			}
			if catCreated != nil {
				c.CreatedAt = *catCreated
			}
			if catUpdated != nil {
				c.UpdatedAt = *catUpdated
			}
			current.Categories = append(current.Categories, c)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	products, err := r.FindWithCategories(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, models.ErrNotFound
	}
	return products[0], nil
}

// Create inserts the product and its category links in one transaction
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	var id int64

	err := r.db.WithTransaction(ctx, func(ctx context.Context) error {
		now := time.Now()
		query := `
			INSERT INTO tb_product (name, description, price, img_url, date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING id
		`

		err := r.db.Conn(ctx).QueryRow(ctx, query,
			product.Name, product.Description, product.Price, product.ImgURL, product.Date, now,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to create product: %w", database.MapPostgresError(err))
		}

		return r.replaceCategories(ctx, id, product.CategoryIDs())
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// Update rewrites the product fields and replaces its category links
func (r *ProductRepository) Update(ctx context.Context, id int64, product *models.Product) (*models.Product, error) {
	err := r.db.WithTransaction(ctx, func(ctx context.Context) error {
		query := `
			UPDATE tb_product
			SET name = $1, description = $2, price = $3, img_url = $4, date = $5, updated_at = $6
			WHERE id = $7
		`

		result, err := r.db.Conn(ctx).Exec(ctx, query,
			product.Name, product.Description, product.Price, product.ImgURL, product.Date, time.Now(), id,
		)
		if err != nil {
			return fmt.Errorf("failed to update product: %w", database.MapPostgresError(err))
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		return r.replaceCategories(ctx, id, product.CategoryIDs())
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM tb_product WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *ProductRepository) replaceCategories(ctx context.Context, productID int64, categoryIDs []int64) error {
	conn := r.db.Conn(ctx)

	if _, err := conn.Exec(ctx, `DELETE FROM tb_product_category WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("failed to clear product categories: %w", database.MapPostgresError(err))
	}

	if len(categoryIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO tb_product_category (product_id, category_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`
	if _, err := conn.Exec(ctx, query, productID, categoryIDs); err != nil {
		return fmt.Errorf("failed to link product categories: %w", database.MapPostgresError(err))
	}

	return nil
}
