package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"career-quiz/internal/config"
	"career-quiz/internal/infra/memory"
	redisinfra "career-quiz/internal/infra/redis"
	"career-quiz/internal/logger"
	transport "career-quiz/internal/transport/http"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewServeCmd serves the browser front end.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the quiz in the browser over a websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath, *port)
		},
	}
}

func runServe(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	client, err := newAPIClient(cfg, log)
	if err != nil {
		return err
	}
	redisClient, err := newRedisClient(ctx, cfg)
	if err != nil {
		return err
	}

	var locks transport.RunLocks = memory.NewRunLocks()
	if redisClient != nil {
		defer redisClient.Close()
		locks = redisinfra.NewRunLocks(redisClient, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour))
	}
	quizzes := newQuizRepository(cfg, redisClient, client, log)
	wsHandler := transport.NewWSHandler(client, quizzes, locks, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/", transport.ServeIndex)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}
	return listenAndShutdown(ctx, server, log, "quiz front end")
}

// listenAndShutdown serves until SIGINT, SIGTERM or ctx is done.
func listenAndShutdown(ctx context.Context, server *http.Server, log zerolog.Logger, name string) error {
	go func() {
		log.Info().Str("addr", server.Addr).Msgf("starting %s", name)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
