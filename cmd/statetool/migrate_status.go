package main

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/northbridge-systems/commerce-core/internal/config"
)

var migrationsDir string

var migrateStatusCmd = &cobra.Command{
	Use:   "migrate-status",
	Short: "Report the applied/pending goose migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := goose.SetDialect("postgres"); err != nil {
			return err
		}
		return goose.Status(db, migrationsDir)
	},
}

func init() {
	migrateStatusCmd.Flags().StringVar(&migrationsDir, "dir", "migrations", "directory holding goose migration files")
}
