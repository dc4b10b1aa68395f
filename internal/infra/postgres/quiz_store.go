package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"career-quiz/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizStore keeps quiz definitions as JSONB documents.
type QuizStore struct {
	pool *pgxpool.Pool
	seed domain.Quiz
}

func NewQuizStore(pool *pgxpool.Pool, seed domain.Quiz) *QuizStore {
	return &QuizStore{pool: pool, seed: seed}
}

// SeedQuiz inserts the seed definition unless a quiz with its id exists.
func (s *QuizStore) SeedQuiz(ctx context.Context) (string, error) {
	if err := domain.ValidateQuiz(s.seed); err != nil {
		return "", err
	}
	raw, err := json.Marshal(s.seed)
	if err != nil {
		return "", fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO quizzes (id, data) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, s.seed.ID, raw)
	if err != nil {
		return "", fmt.Errorf("seed quiz: %w", err)
	}
	return s.seed.ID, nil
}

func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}
