// Command server runs the TiaaDeals storefront API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/utafrali/TiaaDeals/internal/app"
	"github.com/utafrali/TiaaDeals/internal/config"
	pkgconfig "github.com/utafrali/TiaaDeals/pkg/config"
	"github.com/utafrali/TiaaDeals/pkg/logger"
)

type flags struct {
	envFiles []string
	storage  string
	port     int
}

func main() {
	var f flags
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the TiaaDeals storefront API",
		Long: `Serves the auth, catalog, cart and wishlist API. Settings come from the
environment; --env-file values fill in anything not already set and the
remaining flags override both.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cmd, f)
		},
	}
	cmd.Flags().StringSliceVar(&f.envFiles, "env-file", []string{pkgconfig.DefaultDotEnv}, "dotenv files to load, missing files are skipped")
	cmd.Flags().StringVar(&f.storage, "storage", "", "override STORAGE_BACKEND (postgres or memory)")
	cmd.Flags().IntVar(&f.port, "port", 0, "override HTTP_PORT")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, cmd *cobra.Command, f flags) error {
	if err := pkgconfig.LoadDotEnv(f.envFiles...); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("storage") {
		cfg.StorageBackend = f.storage
	}
	if cmd.Flags().Changed("port") {
		cfg.HTTPPort = f.port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	log := logger.NewWithOptions(logger.Options{
		Service: config.ServiceName,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	log.Info("starting TiaaDeals API",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("storage", cfg.StorageBackend),
	)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Error("startup failed", slog.String("error", err.Error()))
		return err
	}
	if err := application.Run(ctx); err != nil {
		log.Error("server stopped with error", slog.String("error", err.Error()))
		return err
	}
	log.Info("TiaaDeals API stopped")
	return nil
}
