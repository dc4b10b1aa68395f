package domain

import "errors"

var (
	// ErrNotReady is returned when an attempt operation is called before bootstrap completed.
	ErrNotReady = errors.New("quiz session not ready")
	// ErrSubmissionPending is returned when a step is submitted while a previous submission is outstanding.
	ErrSubmissionPending = errors.New("step submission already in progress")
	// ErrRunFinished is returned when a finished run is submitted again.
	ErrRunFinished = errors.New("quiz run already finished")
	// ErrQuizNotFound indicates the quiz definition could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound indicates an unknown attempt id.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrStepOutOfOrder indicates a step submission that does not match the attempt's position.
	ErrStepOutOfOrder = errors.New("step submitted out of order")
	// ErrAttemptCompleted indicates a write to an attempt that was already finished.
	ErrAttemptCompleted = errors.New("attempt already completed")
	// ErrInvalidQuiz indicates a quiz definition with the wrong shape.
	ErrInvalidQuiz = errors.New("invalid quiz definition")
	// ErrUnknownKind indicates a question kind outside the supported set.
	ErrUnknownKind = errors.New("unknown question kind")
)
