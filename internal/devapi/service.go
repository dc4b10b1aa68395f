package devapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"career-quiz/internal/domain"
	"github.com/google/uuid"
)

// ErrResponsesMismatch is returned when a step's responses do not cover
// exactly that step's questions.
var ErrResponsesMismatch = errors.New("responses do not match the step's questions")

// Service implements the quiz endpoints over a QuizSource and an AttemptStore.
type Service struct {
	quizzes  QuizSource
	attempts AttemptStore
	now      func() time.Time

	// mu serialises read-modify-write cycles on attempts.
	mu sync.Mutex
}

func NewService(quizzes QuizSource, attempts AttemptStore) *Service {
	return &Service{quizzes: quizzes, attempts: attempts, now: time.Now}
}

func (s *Service) Seed(ctx context.Context) (string, error) {
	return s.quizzes.SeedQuiz(ctx)
}

func (s *Service) Quiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.LoadQuiz(ctx, quizID)
}

// Start resumes the user's in-progress attempt at the quiz or creates one.
func (s *Service) Start(ctx context.Context, userID, quizID string) (AttemptRecord, error) {
	if _, err := s.quizzes.LoadQuiz(ctx, quizID); err != nil {
		return AttemptRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok, err := s.attempts.FindActive(ctx, userID, quizID); err != nil {
		return AttemptRecord{}, err
	} else if ok {
		return rec, nil
	}

	rec := AttemptRecord{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		UserID:    userID,
		Status:    domain.AttemptInProgress,
		StartedAt: s.now().UTC(),
	}
	if err := s.attempts.Create(ctx, rec); err != nil {
		return AttemptRecord{}, err
	}
	return rec, nil
}

// SubmitStep records the step at the attempt's current position and moves it forward.
func (s *Service) SubmitStep(ctx context.Context, attemptID string, sub domain.StepSubmission) (AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return AttemptRecord{}, err
	}
	if rec.Status == domain.AttemptCompleted {
		return AttemptRecord{}, domain.ErrAttemptCompleted
	}
	// a resend of the step just stored is acknowledged again, so a client
	// whose earlier reply was lost can move on
	if n := len(rec.Steps); n > 0 && sub.StepIndex == rec.CurrentStepIndex-1 && sameSubmission(rec.Steps[n-1], sub) {
		return rec, nil
	}
	if sub.StepIndex != rec.CurrentStepIndex {
		return AttemptRecord{}, fmt.Errorf("%w: got step %d, attempt is at %d", domain.ErrStepOutOfOrder, sub.StepIndex, rec.CurrentStepIndex)
	}

	quiz, err := s.quizzes.LoadQuiz(ctx, rec.QuizID)
	if err != nil {
		return AttemptRecord{}, err
	}
	if sub.StepIndex >= len(quiz.Steps) {
		return AttemptRecord{}, fmt.Errorf("%w: quiz has %d steps", domain.ErrStepOutOfOrder, len(quiz.Steps))
	}
	if err := matchResponses(quiz.Steps[sub.StepIndex], sub.Responses); err != nil {
		return AttemptRecord{}, err
	}

	rec.Steps = append(rec.Steps, sub)
	rec.CurrentStepIndex++
	if err := s.attempts.Update(ctx, rec); err != nil {
		return AttemptRecord{}, err
	}
	return rec, nil
}

// Finish marks the attempt completed. Finishing twice returns the same record.
func (s *Service) Finish(ctx context.Context, attemptID string) (AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return AttemptRecord{}, err
	}
	if rec.Status == domain.AttemptCompleted {
		return rec, nil
	}
	finishedAt := s.now().UTC()
	rec.Status = domain.AttemptCompleted
	rec.FinishedAt = &finishedAt
	if err := s.attempts.Update(ctx, rec); err != nil {
		return AttemptRecord{}, err
	}
	return rec, nil
}

func sameSubmission(stored, sub domain.StepSubmission) bool {
	if stored.StepIndex != sub.StepIndex || len(stored.Responses) != len(sub.Responses) {
		return false
	}
	for i, r := range stored.Responses {
		other := sub.Responses[i]
		if r.QuestionID != other.QuestionID || fmt.Sprint(r.Value) != fmt.Sprint(other.Value) {
			return false
		}
	}
	return true
}

func matchResponses(step domain.Step, responses []domain.Response) error {
	if len(responses) != len(step.Questions) {
		return fmt.Errorf("%w: got %d responses for %d questions", ErrResponsesMismatch, len(responses), len(step.Questions))
	}
	for i, q := range step.Questions {
		if responses[i].QuestionID != q.ID {
			return fmt.Errorf("%w: response %d is for %q, expected %q", ErrResponsesMismatch, i, responses[i].QuestionID, q.ID)
		}
	}
	return nil
}
