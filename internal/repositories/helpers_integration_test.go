//go:build integration

package repositories

import (
	"context"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/BradenHooton/dscatalog/internal/database"
	"github.com/BradenHooton/dscatalog/internal/models"
)

// testDB manages a PostgreSQL testcontainer with the catalog schema applied
type testDB struct {
	container testcontainers.Container
	pool      *pgxpool.Pool
	db        *database.DB
}

// setupTestDatabase starts PostgreSQL, runs migrations and registers teardown on t
func setupTestDatabase(t *testing.T) *testDB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("dscatalog"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := runMigrations(ctx, pool); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return &testDB{
		container: container,
		pool:      pool,
		db:        database.NewFromPool(pool, nil),
	}
}

// runMigrations applies the embedded goose migrations through the pgx stdlib adapter
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	goose.SetLogger(log.New(nil, "", 0))

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	return database.Migrate(ctx, sqlDB, "up")
}

// cleanupTables truncates all tables for test isolation
func (tdb *testDB) cleanupTables(t *testing.T) {
	t.Helper()
	tables := []string{"tb_password_recover", "tb_user_role", "tb_user", "tb_product_category", "tb_product", "tb_category"}
	for _, table := range tables {
		if _, err := tdb.pool.Exec(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
			t.Fatalf("failed to truncate table %s: %v", table, err)
		}
	}
}

func (tdb *testDB) seedCategory(t *testing.T, name string) *models.Category {
	t.Helper()
	c, err := NewCategoryRepository(tdb.db).Create(context.Background(), &models.Category{Name: name})
	if err != nil {
		t.Fatalf("failed to seed category %s: %v", name, err)
	}
	return c
}

func (tdb *testDB) seedProduct(t *testing.T, name string, price float64, categories ...*models.Category) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Description: name + " description", Price: price}
	for _, c := range categories {
		p.Categories = append(p.Categories, *c)
	}
	created, err := NewProductRepository(tdb.db).Create(context.Background(), p)
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", name, err)
	}
	return created
}
