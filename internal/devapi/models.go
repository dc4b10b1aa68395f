// Package devapi is a local stand-in for the quiz service. It implements the
// five quiz endpoints closely enough to develop and test the client against;
// scoring and recommendations are not part of it.
package devapi

import (
	"context"
	"time"

	"career-quiz/internal/domain"
)

// QuizSource seeds and serves quiz definitions.
type QuizSource interface {
	SeedQuiz(ctx context.Context) (string, error)
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AttemptStore persists attempts.
type AttemptStore interface {
	// FindActive returns the user's in-progress attempt at quizID, if any.
	FindActive(ctx context.Context, userID, quizID string) (AttemptRecord, bool, error)
	Create(ctx context.Context, rec AttemptRecord) error
	// Get returns domain.ErrAttemptNotFound for unknown ids.
	Get(ctx context.Context, attemptID string) (AttemptRecord, error)
	Update(ctx context.Context, rec AttemptRecord) error
}

// AttemptRecord is the stored form of an attempt, including its saved steps.
type AttemptRecord struct {
	ID               string                  `json:"id"`
	QuizID           string                  `json:"quizId"`
	UserID           string                  `json:"userId"`
	CurrentStepIndex int                     `json:"currentStepIndex"`
	Status           domain.AttemptStatus    `json:"status"`
	Steps            []domain.StepSubmission `json:"steps,omitempty"`
	StartedAt        time.Time               `json:"startedAt"`
	FinishedAt       *time.Time              `json:"finishedAt,omitempty"`
}

func (r AttemptRecord) Attempt() domain.Attempt {
	return domain.Attempt{
		ID:               r.ID,
		QuizID:           r.QuizID,
		CurrentStepIndex: r.CurrentStepIndex,
		Status:           r.Status,
	}
}
