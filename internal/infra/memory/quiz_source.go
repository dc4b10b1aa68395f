package memory

import (
	"context"
	"sync"

	"career-quiz/internal/domain"
)

// QuizSource serves definitions from memory. SeedQuiz installs the seed
// definition and returns its id.
type QuizSource struct {
	seed domain.Quiz

	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewQuizSource(seed domain.Quiz) *QuizSource {
	return &QuizSource{seed: seed, quizzes: make(map[string]domain.Quiz)}
}

func (s *QuizSource) SeedQuiz(context.Context) (string, error) {
	if err := domain.ValidateQuiz(s.seed); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[s.seed.ID] = s.seed
	return s.seed.ID, nil
}

func (s *QuizSource) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}
