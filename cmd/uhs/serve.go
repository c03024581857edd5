package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/uhs/uhs/internal/config"
	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/internal/platform/db"
	"github.com/uhs/uhs/internal/platform/session"
	"github.com/uhs/uhs/internal/platform/telemetry"
	"github.com/uhs/uhs/internal/portal"
)

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the portal server",
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetString("port")
			return runServer(a, port)
		},
	}
	cmd.Flags().String("port", "", "listen port (default PORT)")
	return cmd
}

func runServer(a *app, port string) error {
	cfg := a.cfg

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	metrics := telemetry.New()
	client, err := apiclient.New(apiclient.Options{
		BaseURL:       cfg.APIURL,
		Timeout:       cfg.RequestTimeout,
		ExportTimeout: cfg.ExportTimeout,
		Logger:        logger,
		Observer:      metrics,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := portal.Deps{
		Config:  cfg,
		Logger:  logger,
		Client:  client,
		Store:   session.NewMemoryStore(),
		Metrics: metrics,
	}
	if cfg.SessionDatabaseURL != "" {
		pool, err := db.NewPool(ctx, poolOptions(cfg, "uhs-portal"))
		if err != nil {
			return err
		}
		defer pool.Close()
		n, err := db.NewMigrator(pool, db.Migrations()).Up(ctx)
		if err != nil {
			return fmt.Errorf("migrate session database: %w", err)
		}
		logger.Info().Int("applied", n).Msg("connected to session database")
		deps.Pool = pool
		deps.Store = session.NewPGStore(pool)
	} else {
		logger.Info().Msg("sessions kept in memory")
	}

	if port == "" {
		port = cfg.Port
	}
	return portal.New(deps).Run(ctx, ":"+port)
}

func poolOptions(cfg *config.Config, appName string) db.PoolOptions {
	return db.PoolOptions{
		URL:      cfg.SessionDatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		AppName:  appName,
	}
}

func migrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the portal session database",
	}

	withMigrator := func(run func(ctx context.Context, m *db.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if a.cfg.SessionDatabaseURL == "" {
				return fmt.Errorf("SESSION_DATABASE_URL is not set")
			}
			ctx := commandContext(cmd)
			pool, err := db.NewPool(ctx, poolOptions(a.cfg, "uhs-migrate"))
			if err != nil {
				return err
			}
			defer pool.Close()
			return run(ctx, db.NewMigrator(pool, db.Migrations()))
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: withMigrator(func(ctx context.Context, m *db.Migrator) error {
			count, err := m.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(a.out, "Applied %d migration(s) successfully.\n", count)
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: withMigrator(func(ctx context.Context, m *db.Migrator) error {
			statuses, err := m.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			fmt.Fprintf(a.out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status, at := "pending", ""
				if s.Applied {
					status = "applied"
					at = s.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(a.out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, at)
			}
			return nil
		}),
	})
	return cmd
}
