package memory

import (
	"context"
	"sync"

	"career-quiz/internal/devapi"
	"career-quiz/internal/domain"
	"github.com/samber/lo"
)

// AttemptStore keeps attempts in process memory.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]devapi.AttemptRecord
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[string]devapi.AttemptRecord)}
}

func (s *AttemptStore) FindActive(_ context.Context, userID, quizID string) (devapi.AttemptRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := lo.FindKeyBy(s.attempts, func(_ string, r devapi.AttemptRecord) bool {
		return r.UserID == userID && r.QuizID == quizID && r.Status == domain.AttemptInProgress
	})
	if !ok {
		return devapi.AttemptRecord{}, false, nil
	}
	return cloneRecord(s.attempts[rec]), true, nil
}

func (s *AttemptStore) Create(_ context.Context, rec devapi.AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[rec.ID] = cloneRecord(rec)
	return nil
}

func (s *AttemptStore) Get(_ context.Context, attemptID string) (devapi.AttemptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.attempts[attemptID]
	if !ok {
		return devapi.AttemptRecord{}, domain.ErrAttemptNotFound
	}
	return cloneRecord(rec), nil
}

func (s *AttemptStore) Update(_ context.Context, rec devapi.AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[rec.ID]; !ok {
		return domain.ErrAttemptNotFound
	}
	s.attempts[rec.ID] = cloneRecord(rec)
	return nil
}

func cloneRecord(rec devapi.AttemptRecord) devapi.AttemptRecord {
	rec.Steps = append([]domain.StepSubmission(nil), rec.Steps...)
	return rec
}
