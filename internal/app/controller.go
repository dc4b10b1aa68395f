package app

import (
	"context"
	"fmt"
	"sync"

	"career-quiz/internal/domain"
	"github.com/rs/zerolog"
)

// Backend is the quiz service as the controller uses it.
type Backend interface {
	SeedQuiz(ctx context.Context) (string, error)
	StartAttempt(ctx context.Context, userID, quizID string) (domain.Attempt, error)
	SubmitStep(ctx context.Context, attemptID string, sub domain.StepSubmission) error
	FinishAttempt(ctx context.Context, attemptID string) (domain.Attempt, error)
}

// QuizRepository loads quiz definitions (from cache/backing service).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// State is the controller's bootstrap state.
type State int

const (
	StateBootstrapping State = iota
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Controller owns one attempt's lifecycle. Bootstrap failures put it in
// StateError; SaveStep and Finish failures are returned to the caller and leave
// the state alone.
type Controller struct {
	backend Backend
	quizzes QuizRepository
	userID  string
	log     zerolog.Logger

	mu      sync.RWMutex
	gen     uint64
	state   State
	quiz    domain.Quiz
	attempt domain.Attempt
	errMsg  string
}

// NewController builds a controller for userID. An empty userID is sent as is.
func NewController(backend Backend, quizzes QuizRepository, userID string, log zerolog.Logger) *Controller {
	return &Controller{
		backend: backend,
		quizzes: quizzes,
		userID:  userID,
		log:     log.With().Str("component", "quiz_controller").Str("user_id", userID).Logger(),
		state:   StateBootstrapping,
	}
}

// Bootstrap seeds the quiz, fetches its definition and starts an attempt, in
// that order. Every call starts from scratch; only the latest call's result is
// kept.
func (c *Controller) Bootstrap(ctx context.Context) State {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state = StateBootstrapping
	c.quiz = domain.Quiz{}
	c.attempt = domain.Attempt{}
	c.errMsg = ""
	c.mu.Unlock()

	quiz, attempt, err := c.bootstrap(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return c.state
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("bootstrap failed")
		c.state = StateError
		c.errMsg = err.Error()
		return c.state
	}
	c.log.Info().
		Str("quiz_id", quiz.ID).
		Str("attempt_id", attempt.ID).
		Int("step", attempt.CurrentStepIndex).
		Str("status", string(attempt.Status)).
		Msg("attempt ready")
	c.state = StateReady
	c.quiz = quiz
	c.attempt = attempt
	return c.state
}

// Refetch re-runs the whole bootstrap sequence.
func (c *Controller) Refetch(ctx context.Context) State {
	return c.Bootstrap(ctx)
}

func (c *Controller) bootstrap(ctx context.Context) (domain.Quiz, domain.Attempt, error) {
	quizID, err := c.backend.SeedQuiz(ctx)
	if err != nil {
		return domain.Quiz{}, domain.Attempt{}, err
	}
	quiz, err := c.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, domain.Attempt{}, err
	}
	if err := domain.ValidateQuiz(quiz); err != nil {
		return domain.Quiz{}, domain.Attempt{}, err
	}
	attempt, err := c.backend.StartAttempt(ctx, c.userID, quiz.ID)
	if err != nil {
		return domain.Quiz{}, domain.Attempt{}, err
	}
	if attempt.CurrentStepIndex > len(quiz.Steps) {
		return domain.Quiz{}, domain.Attempt{}, fmt.Errorf("attempt %s is at step %d of a %d-step quiz", attempt.ID, attempt.CurrentStepIndex, len(quiz.Steps))
	}
	return quiz, attempt, nil
}

// SaveStep persists one completed step. It does not move the step pointer.
func (c *Controller) SaveStep(ctx context.Context, sub domain.StepSubmission) error {
	attempt, err := c.readyAttempt()
	if err != nil {
		return err
	}
	return c.backend.SubmitStep(ctx, attempt.ID, sub)
}

// Finish finalises the attempt and returns the finished record.
func (c *Controller) Finish(ctx context.Context) (domain.Attempt, error) {
	attempt, err := c.readyAttempt()
	if err != nil {
		return domain.Attempt{}, err
	}
	finished, err := c.backend.FinishAttempt(ctx, attempt.ID)
	if err != nil {
		return domain.Attempt{}, err
	}
	c.log.Info().Str("attempt_id", finished.ID).Msg("attempt finished")
	return finished, nil
}

func (c *Controller) readyAttempt() (domain.Attempt, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateReady {
		return domain.Attempt{}, fmt.Errorf("%w (state %s)", domain.ErrNotReady, c.state)
	}
	return c.attempt, nil
}

// State returns the current bootstrap state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Err returns the bootstrap error message, empty unless in StateError.
func (c *Controller) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errMsg
}

func (c *Controller) Quiz() domain.Quiz {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.quiz
}

func (c *Controller) Attempt() domain.Attempt {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attempt
}
