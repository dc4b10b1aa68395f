package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"career-quiz/internal/devapi"
	"career-quiz/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const attemptColumns = `id, quiz_id, user_id, current_step_index, status, steps, started_at, finished_at`

// AttemptStore persists attempts with their submitted steps as JSONB.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) FindActive(ctx context.Context, userID, quizID string) (devapi.AttemptRecord, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM attempts
		WHERE user_id=$1 AND quiz_id=$2 AND status=$3
		ORDER BY started_at DESC LIMIT 1`, userID, quizID, string(domain.AttemptInProgress))
	rec, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return devapi.AttemptRecord{}, false, nil
	}
	if err != nil {
		return devapi.AttemptRecord{}, false, fmt.Errorf("find attempt: %w", err)
	}
	return rec, true, nil
}

func (s *AttemptStore) Create(ctx context.Context, rec devapi.AttemptRecord) error {
	steps, err := marshalSteps(rec.Steps)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO attempts (`+attemptColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.QuizID, rec.UserID, rec.CurrentStepIndex, string(rec.Status), steps, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (devapi.AttemptRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM attempts WHERE id=$1`, attemptID)
	rec, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return devapi.AttemptRecord{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return devapi.AttemptRecord{}, fmt.Errorf("get attempt: %w", err)
	}
	return rec, nil
}

func (s *AttemptStore) Update(ctx context.Context, rec devapi.AttemptRecord) error {
	steps, err := marshalSteps(rec.Steps)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `UPDATE attempts
		SET current_step_index=$2, status=$3, steps=$4, finished_at=$5
		WHERE id=$1`, rec.ID, rec.CurrentStepIndex, string(rec.Status), steps, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

func scanAttempt(row pgx.Row) (devapi.AttemptRecord, error) {
	var (
		rec    devapi.AttemptRecord
		status string
		steps  []byte
	)
	if err := row.Scan(&rec.ID, &rec.QuizID, &rec.UserID, &rec.CurrentStepIndex, &status, &steps, &rec.StartedAt, &rec.FinishedAt); err != nil {
		return devapi.AttemptRecord{}, err
	}
	rec.Status = domain.AttemptStatus(status)
	if len(steps) > 0 {
		if err := json.Unmarshal(steps, &rec.Steps); err != nil {
			return devapi.AttemptRecord{}, fmt.Errorf("unmarshal steps: %w", err)
		}
	}
	return rec, nil
}

func marshalSteps(steps []domain.StepSubmission) ([]byte, error) {
	if steps == nil {
		steps = []domain.StepSubmission{}
	}
	raw, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("marshal steps: %w", err)
	}
	return raw, nil
}
