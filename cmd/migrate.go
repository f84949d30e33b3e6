package cmd

import (
	"context"
	"errors"

	"social-house-backend/internal/config"
	"social-house-backend/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		setupLogger(cfg.Log.Level, cfg.Log.Format)

		if cfg.Database.Driver != "postgres" {
			return errors.New("migrations only apply to the postgres driver")
		}

		ctx := context.Background()
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := repository.Migrate(ctx, db); err != nil {
			return err
		}

		log.Info().Msg("Database is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
