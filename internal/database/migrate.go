package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/BradenHooton/dscatalog/migrations"
	"github.com/pressly/goose/v3"
)

// Migrate applies, rolls back or reports the embedded schema migrations.
// command is one of "up", "down" or "status".
func Migrate(ctx context.Context, db *sql.DB, command string) error {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	switch command {
	case "up":
		return goose.UpContext(ctx, db, ".")
	case "down":
		return goose.DownContext(ctx, db, ".")
	case "status":
		return goose.StatusContext(ctx, db, ".")
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
}
