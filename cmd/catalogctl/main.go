// Command catalogctl runs schema migrations and loads seed data.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BradenHooton/dscatalog/internal/config"
	"github.com/BradenHooton/dscatalog/internal/database"
	"github.com/BradenHooton/dscatalog/internal/repositories"
	pkgauth "github.com/BradenHooton/dscatalog/pkg/auth"
	pkglogger "github.com/BradenHooton/dscatalog/pkg/logger"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	var logLevel string

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Operational commands for the catalog database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "debug|info|warn|error (env LOG_LEVEL)")

	logger := func() *slog.Logger {
		return pkglogger.NewWithWriter(os.Stderr, logLevel)
	}

	root.AddCommand(newMigrateCmd(logger))
	root.AddCommand(newSeedCmd(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newMigrateCmd(logger func() *slog.Logger) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect schema migrations",
	}

	for _, c := range []struct{ use, short string }{
		{"up", "Apply all pending migrations"},
		{"down", "Roll back the most recent migration"},
		{"status", "Print the state of every migration"},
	} {
		command := c.use
		migrateCmd.AddCommand(&cobra.Command{
			Use:   command,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				dbCfg, err := config.LoadDatabase()
				if err != nil {
					return err
				}

				db, err := sql.Open("postgres", dbCfg.DSN())
				if err != nil {
					return fmt.Errorf("failed to open database: %w", err)
				}
				defer db.Close()

				if err := database.Migrate(cmd.Context(), db, command); err != nil {
					return fmt.Errorf("migrate %s: %w", command, err)
				}
				logger().Info("migration finished", slog.String("command", command))
				return nil
			},
		})
	}

	return migrateCmd
}

func newSeedCmd(logger func() *slog.Logger) *cobra.Command {
	var file string

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load categories, products and users from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			fh, err := os.Open(file)
			if err != nil {
				return err
			}
			defer fh.Close()

			seed, err := parseSeedFile(fh)
			if err != nil {
				return err
			}

			dbCfg, err := config.LoadDatabase()
			if err != nil {
				return err
			}
			dbCfg.ApplicationName = "catalogctl"

			log := logger()
			db, err := database.NewConnection(cmd.Context(), dbCfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			s := &seeder{
				categories:   repositories.NewCategoryRepository(db),
				products:     repositories.NewProductRepository(db),
				users:        repositories.NewUserRepository(db),
				tx:           db,
				hashPassword: pkgauth.HashPassword,
				logger:       log,
			}

			res, err := s.apply(cmd.Context(), seed)
			if err != nil {
				return fmt.Errorf("seed failed, nothing was written: %w", err)
			}

			log.Info("seed applied",
				slog.Int("categories", res.Categories),
				slog.Int("products", res.Products),
				slog.Int("users", res.Users),
			)
			return nil
		},
	}
	seedCmd.Flags().StringVarP(&file, "file", "f", "", "Path to the seed YAML file")

	return seedCmd
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
