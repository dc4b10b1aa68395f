package cli

import (
	"context"
	"net/http"
	"time"

	"career-quiz/internal/config"
	"career-quiz/internal/devapi"
	"career-quiz/internal/infra/memory"
	"career-quiz/internal/infra/postgres"
	"career-quiz/internal/logger"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

const devAPIPort = "8081"

// NewDevAPICmd runs a local stand-in for the quiz service.
func NewDevAPICmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "devapi",
		Short: "Run a local quiz service for development (port 8081 unless --port is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			listen := devAPIPort
			if cmd.Flags().Changed("port") {
				listen = *port
			}
			return runDevAPI(cmd.Context(), *configPath, listen)
		},
	}
}

func runDevAPI(ctx context.Context, configPath, listenPort string) error {
	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	var (
		quizzes  devapi.QuizSource   = memory.NewQuizSource(devapi.SampleQuiz())
		attempts devapi.AttemptStore = memory.NewAttemptStore()
	)
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		quizzes = postgres.NewQuizStore(pool, devapi.SampleQuiz())
		attempts = postgres.NewAttemptStore(pool)
		log.Info().Msg("using postgres quiz and attempt stores")
	}

	handler := devapi.NewHandler(devapi.NewService(quizzes, attempts), log)
	server := &http.Server{
		Addr:         ":" + listenPort,
		Handler:      devapi.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return listenAndShutdown(ctx, server, log, "dev quiz api")
}
