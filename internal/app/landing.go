package app

import (
	"context"
	"sync"

	"career-quiz/internal/domain"
)

// Action is what the landing screen offers.
type Action int

const (
	// ActionWait is shown while bootstrapping.
	ActionWait Action = iota
	// ActionRetry is shown after a bootstrap failure.
	ActionRetry
	ActionStart
	ActionResume
	// ActionCompleted means the service handed back a finished attempt; the
	// host goes straight to results.
	ActionCompleted
)

func (a Action) String() string {
	switch a {
	case ActionWait:
		return "wait"
	case ActionRetry:
		return "retry"
	case ActionStart:
		return "start"
	case ActionResume:
		return "resume"
	case ActionCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Landing is the pre-quiz screen: it decides between start and resume and
// hands off to a Run.
type Landing struct {
	ctrl *Controller

	mu      sync.Mutex
	started bool
}

func NewLanding(ctrl *Controller) *Landing {
	return &Landing{ctrl: ctrl}
}

// Action reports what to offer for the controller's current state.
func (l *Landing) Action() Action {
	switch l.ctrl.State() {
	case StateError:
		return ActionRetry
	case StateReady:
		return attemptAction(l.ctrl.Attempt())
	default:
		return ActionWait
	}
}

// attemptAction only looks at the canonical status; loose service fields are
// mapped before they get here.
func attemptAction(a domain.Attempt) Action {
	switch {
	case a.Status == domain.AttemptCompleted:
		return ActionCompleted
	case a.CurrentStepIndex > 0:
		return ActionResume
	default:
		return ActionStart
	}
}

// Message is the bootstrap error to show next to the retry action.
func (l *Landing) Message() string {
	return l.ctrl.Err()
}

// Retry re-runs bootstrap after a failure.
func (l *Landing) Retry(ctx context.Context) Action {
	l.ctrl.Refetch(ctx)
	return l.Action()
}

// Begin records the start press and returns the run for the bootstrapped attempt.
func (l *Landing) Begin() (*Run, error) {
	if l.ctrl.State() != StateReady {
		return nil, domain.ErrNotReady
	}
	if l.ctrl.Attempt().Status == domain.AttemptCompleted {
		return nil, domain.ErrRunFinished
	}
	l.mu.Lock()
	l.started = true
	l.mu.Unlock()
	return NewRun(l.ctrl, l.ctrl.Quiz(), l.ctrl.Attempt()), nil
}

// Started reports whether the user has pressed start.
func (l *Landing) Started() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.started
}

// Quiz returns the bootstrapped definition.
func (l *Landing) Quiz() domain.Quiz {
	return l.ctrl.Quiz()
}

// Attempt returns the bootstrapped attempt.
func (l *Landing) Attempt() domain.Attempt {
	return l.ctrl.Attempt()
}
