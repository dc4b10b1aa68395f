package cli

import (
	"context"
	"fmt"

	"career-quiz/internal/config"
	"career-quiz/internal/infra/postgres/migrations"
	"career-quiz/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations for the dev quiz api",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	return runMigrationsWithConfig(ctx, cfg, logger.Setup(cfg.Log.Level, cfg.Log.Format))
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	applied, err := migrations.Apply(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	log.Info().Strs("applied", applied).Msg("migrations applied")
	return nil
}
