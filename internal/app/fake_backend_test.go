package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"career-quiz/internal/app"
	"career-quiz/internal/domain"
	"career-quiz/internal/infra/memory"
	"github.com/rs/zerolog"
)

var errBackendDown = errors.New("backend unavailable")

// fakeBackend records calls in order and can fail a number of calls per operation.
type fakeBackend struct {
	mu          sync.Mutex
	quiz        domain.Quiz
	startStep   int
	startStatus domain.AttemptStatus
	failSeed    int
	failSubmit  int
	failFinish  int
	calls       []string
	submissions []domain.StepSubmission
	starts      int
	startUsers  []string
}

func newFakeBackend(quiz domain.Quiz) *fakeBackend {
	return &fakeBackend{quiz: quiz, startStatus: domain.AttemptInProgress}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) SeedQuiz(_ context.Context) (string, error) {
	f.record("seed")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSeed > 0 {
		f.failSeed--
		return "", errBackendDown
	}
	return f.quiz.ID, nil
}

func (f *fakeBackend) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	f.record("fetch")
	if quizID != f.quiz.ID {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return f.quiz, nil
}

func (f *fakeBackend) StartAttempt(_ context.Context, userID, quizID string) (domain.Attempt, error) {
	f.record("start")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.startUsers = append(f.startUsers, userID)
	return domain.Attempt{
		ID:               fmt.Sprintf("att-%d", f.starts),
		QuizID:           quizID,
		CurrentStepIndex: f.startStep,
		Status:           f.startStatus,
	}, nil
}

func (f *fakeBackend) SubmitStep(_ context.Context, attemptID string, sub domain.StepSubmission) error {
	f.record("step")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubmit > 0 {
		f.failSubmit--
		return errBackendDown
	}
	f.submissions = append(f.submissions, sub)
	return nil
}

func (f *fakeBackend) FinishAttempt(_ context.Context, attemptID string) (domain.Attempt, error) {
	f.record("finish")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFinish > 0 {
		f.failFinish--
		return domain.Attempt{}, errBackendDown
	}
	return domain.Attempt{ID: attemptID, Status: domain.AttemptCompleted}, nil
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) Submissions() []domain.StepSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.StepSubmission(nil), f.submissions...)
}

func (f *fakeBackend) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func newTestController(backend *fakeBackend) *app.Controller {
	repo := memory.NewQuizRepository(backend, time.Minute)
	return app.NewController(backend, repo, "u1", zerolog.Nop())
}

func intPtr(v int) *int { return &v }

// careerQuiz has a single-choice step followed by a numeric and a scale question.
func careerQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Career interests",
		Steps: []domain.Step{
			{Questions: []domain.Question{
				{ID: "env", Kind: domain.KindSingleChoice, Prompt: "Where do you like to work?", Options: []string{"A", "B"}},
			}},
			{Questions: []domain.Question{
				{ID: "hours", Kind: domain.KindNumericRange, Prompt: "Hours outdoors per week", Min: intPtr(0), Max: intPtr(40), TimeLimitSeconds: intPtr(25)},
				{ID: "people", Kind: domain.KindOrdinalScale, Prompt: "I enjoy working with people", Scale: 5},
			}},
		},
	}
}
