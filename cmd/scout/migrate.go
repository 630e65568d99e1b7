package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dog-scout/internal/config"
	"dog-scout/internal/storage/migrations"
	pgstore "dog-scout/internal/storage/postgres"
)

func newMigrateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema and the optional ClickHouse schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(g, config.Overrides{}, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cfg.Storage.PostgresDSN == "" && cfg.Storage.ClickhouseDSN == "" {
				return errors.New("nothing to migrate: set storage.postgres_dsn or storage.clickhouse_dsn")
			}

			ctx, stop := shutdownContext(log)
			defer stop()
			out := cmd.OutOrStdout()

			if cfg.Storage.PostgresDSN != "" {
				pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN, pgstore.WithConnectTimeout(cfg.RequestTimeout))
				if err != nil {
					return err
				}
				defer pool.Close()

				applied, err := migrations.RunPostgresMigrations(ctx, pool)
				if err != nil {
					return fmt.Errorf("apply postgres migrations: %w", err)
				}
				fmt.Fprintf(out, "postgres: %d migration(s) applied\n", len(applied))
				for _, f := range applied {
					fmt.Fprintf(out, "  %s\n", f)
				}
			}

			if cfg.Storage.ClickhouseDSN != "" {
				conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
				if err != nil {
					return fmt.Errorf("apply clickhouse migrations: %w", err)
				}
				conn.Close()
				fmt.Fprintln(out, "clickhouse: schema up to date")
			}
			return nil
		},
	}
}
