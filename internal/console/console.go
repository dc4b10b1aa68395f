// Package console runs the quiz in a terminal: the landing prompt, one prompt
// per question, and a countdown per step that submits on expiry.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"career-quiz/internal/app"
	"career-quiz/internal/domain"
	"career-quiz/internal/render"
	"career-quiz/internal/timer"
	"github.com/rs/zerolog"
)

var (
	// ErrInputClosed is returned when stdin ends before the quiz does.
	ErrInputClosed = errors.New("input closed")
	// ErrDeclined is returned when the user chooses not to retry.
	ErrDeclined = errors.New("declined to retry")
)

// Console reads answers line by line from in and writes prompts to out.
type Console struct {
	lines    <-chan string
	done     chan struct{}
	once     sync.Once
	out      io.Writer
	log      zerolog.Logger
	interval time.Duration
}

// Option customises a Console.
type Option func(*Console)

// WithTickInterval shortens the countdown tick, for tests.
func WithTickInterval(d time.Duration) Option {
	return func(c *Console) { c.interval = d }
}

// New starts reading in. Call Close when done so the reader stops.
func New(in io.Reader, out io.Writer, log zerolog.Logger, opts ...Option) *Console {
	lines := make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	c := &Console{
		lines:    lines,
		done:     done,
		out:      out,
		log:      log.With().Str("component", "console").Logger(),
		interval: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close stops the input reader. A read already blocked in the underlying
// reader returns on its next line or EOF.
func (c *Console) Close() {
	c.once.Do(func() { close(c.done) })
}

// Take shows the landing prompt and, once the user starts, runs the quiz to
// completion. It returns the finished attempt for the results view.
func (c *Console) Take(ctx context.Context, landing *app.Landing) (domain.Attempt, error) {
	for {
		switch landing.Action() {
		case app.ActionWait:
			landing.Retry(ctx)

		case app.ActionRetry:
			c.printf("\nCould not load the quiz: %s\n", landing.Message())
			if !c.confirm(ctx, "Try again? [Y/n] ") {
				return domain.Attempt{}, fmt.Errorf("%w: %s", ErrDeclined, landing.Message())
			}
			landing.Retry(ctx)

		case app.ActionCompleted:
			attempt := landing.Attempt()
			c.printf("\nYou have already completed this quiz (attempt %s).\n", attempt.ID)
			return attempt, nil

		case app.ActionStart, app.ActionResume:
			quiz := landing.Quiz()
			c.printf("\n%s\n", quiz.Title)
			if quiz.Description != "" {
				c.printf("%s\n", quiz.Description)
			}
			prompt := fmt.Sprintf("%d steps. Press Enter to start. ", len(quiz.Steps))
			if landing.Action() == app.ActionResume {
				prompt = fmt.Sprintf("Resume at step %d of %d? Press Enter. ", landing.Attempt().CurrentStepIndex+1, len(quiz.Steps))
			}
			c.printf("%s", prompt)
			if _, _, err := c.readLine(ctx, nil); err != nil {
				return domain.Attempt{}, err
			}
			run, err := landing.Begin()
			if err != nil {
				return domain.Attempt{}, err
			}
			return c.Run(ctx, run)
		}
	}
}

// Run asks every remaining step of run and submits each one, on the user's
// last answer or when the step's time runs out.
func (c *Console) Run(ctx context.Context, run *app.Run) (domain.Attempt, error) {
	for {
		if step, ok := run.CurrentStep(); ok {
			timedOut, err := c.askStep(ctx, run, step)
			if err != nil {
				return domain.Attempt{}, err
			}
			if timedOut {
				c.printf("\nTime is up, submitting your answers.\n")
			}
		}

		out, err := c.submit(ctx, run)
		if err != nil {
			return domain.Attempt{}, err
		}
		if out.Finished {
			c.printf("\nAll done! Your results are ready (attempt %s).\n", out.Attempt.ID)
			return out.Attempt, nil
		}
	}
}

// askStep prompts for each question of the step until all are answered or
// skipped, or the countdown expires.
func (c *Console) askStep(ctx context.Context, run *app.Run, step domain.Step) (bool, error) {
	renderers, err := render.ForStep(step, func(questionID string, value any) {
		run.SetAnswer(questionID, value)
	})
	if err != nil {
		return false, err
	}

	// one countdown per step so a late expiry cannot leak into the next one
	expired := make(chan struct{}, 1)
	countdown := timer.New(nil, func() {
		select {
		case expired <- struct{}{}:
		default:
		}
	}, timer.WithInterval(c.interval))
	defer countdown.Stop()

	limit := run.TimeLimit()
	c.printf("\nStep %d of %d (%ds)\n", run.StepIndex()+1, run.TotalSteps(), limit)
	countdown.Reset(limit)

	for _, r := range renderers {
		if err := r.Render(c.out); err != nil {
			return false, err
		}
		for {
			c.printf("[%ds] > ", countdown.Remaining())
			line, timedOut, err := c.readLine(ctx, expired)
			if err != nil || timedOut {
				return timedOut, err
			}
			line = strings.TrimSpace(line)
			if line == "" {
				break
			}
			if err := r.Input(line); err != nil {
				c.printf("  Not a valid answer, try again or press Enter to skip.\n")
				continue
			}
			break
		}
	}
	return false, nil
}

// submit retries the submission for as long as the user agrees to.
func (c *Console) submit(ctx context.Context, run *app.Run) (app.Outcome, error) {
	for {
		out, err := run.Submit(ctx)
		if err == nil {
			return out, nil
		}
		c.log.Warn().Err(err).Int("step", run.StepIndex()).Msg("submit step")
		c.printf("\nCould not save your answers: %v\n", err)
		if !c.confirm(ctx, "Retry? [Y/n] ") {
			return app.Outcome{}, fmt.Errorf("%w: %v", ErrDeclined, err)
		}
	}
}

func (c *Console) confirm(ctx context.Context, prompt string) bool {
	c.printf("%s", prompt)
	line, _, err := c.readLine(ctx, nil)
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "n", "no":
		return false
	default:
		return true
	}
}

// readLine waits for the next input line. A nil expired channel never fires.
func (c *Console) readLine(ctx context.Context, expired <-chan struct{}) (string, bool, error) {
	select {
	case <-c.done:
		return "", false, ErrInputClosed
	default:
	}
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case <-c.done:
		return "", false, ErrInputClosed
	case <-expired:
		return "", true, nil
	case line, ok := <-c.lines:
		if !ok {
			return "", false, ErrInputClosed
		}
		return line, false, nil
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
