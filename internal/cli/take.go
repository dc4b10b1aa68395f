package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"career-quiz/internal/app"
	"career-quiz/internal/config"
	"career-quiz/internal/console"
	"career-quiz/internal/logger"
	"github.com/spf13/cobra"
)

// NewTakeCmd runs the quiz interactively in the terminal.
func NewTakeCmd(configPath *string) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take the career quiz in this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTake(cmd.Context(), *configPath, userID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (defaults to user.id or QUIZ_USER_ID)")
	return cmd
}

func runTake(ctx context.Context, configPath, userFlag string, in io.Reader, out io.Writer) error {
	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return err
	}
	log := logger.Setup(takeLogLevel(cfg), cfg.Log.Format)

	userID := userFlag
	if userID == "" {
		userID = cfg.User.ID
	}
	if userID == "" {
		return errors.New("no user id: pass --user or set user.id / QUIZ_USER_ID")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	client, err := newAPIClient(cfg, log)
	if err != nil {
		return err
	}
	redisClient, err := newRedisClient(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctrl := app.NewController(client, newQuizRepository(cfg, redisClient, client, log), userID, log)
	ctrl.Bootstrap(ctx)

	term := console.New(in, out, log)
	defer term.Close()

	attempt, err := term.Take(ctx, app.NewLanding(ctrl))
	if err != nil {
		return err
	}
	log.Info().Str("attempt_id", attempt.ID).Str("status", string(attempt.Status)).Msg("quiz finished")
	fmt.Fprintf(out, "Attempt %s is ready for results.\n", attempt.ID)
	return nil
}

// takeLogLevel keeps info logs out of the quiz prompts unless a level is
// configured.
func takeLogLevel(cfg config.Config) string {
	if cfg.Log.Level != "" {
		return cfg.Log.Level
	}
	return "warn"
}
