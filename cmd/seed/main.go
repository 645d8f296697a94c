// Command seed loads the demo catalog into the TiaaDeals Postgres database.
// It reads the same environment as the API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/TiaaDeals/internal/catalogseed"
	"github.com/utafrali/TiaaDeals/internal/config"
	"github.com/utafrali/TiaaDeals/migrations"
	pkgconfig "github.com/utafrali/TiaaDeals/pkg/config"
	"github.com/utafrali/TiaaDeals/pkg/database"
	"github.com/utafrali/TiaaDeals/pkg/logger"
)

type options struct {
	extra   int
	seed    int64
	migrate bool
	dryRun  bool
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo catalog into PostgreSQL",
		Long: `Upserts the demo categories and products, keyed by stable ids, so the
command can be re-run safely. --extra appends generated products for
load testing; the same --rand-seed always produces the same rows.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	rootCmd.Flags().IntVar(&opts.extra, "extra", 0, "number of generated products to add")
	rootCmd.Flags().Int64Var(&opts.seed, "rand-seed", 1, "seed for generated products")
	rootCmd.Flags().BoolVar(&opts.migrate, "migrate", true, "apply pending migrations first")
	rootCmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print what would be written without connecting")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewWithOptions(logger.Options{
		Service: "tiaadeals-seed",
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	catalog := catalogseed.Generate(catalogseed.Demo(time.Now()), opts.extra, opts.seed)
	if opts.dryRun {
		fmt.Printf("would upsert %d categories and %d products\n", len(catalog.Categories), len(catalog.Products))
		return nil
	}

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if opts.migrate {
		if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	res, err := catalogseed.Seed(ctx, pool, catalog, log)
	if err != nil {
		return err
	}
	log.Info("seed complete",
		slog.Int("categories", res.Categories),
		slog.Int("products", res.Products),
	)
	return nil
}
