package api

import (
	"strings"

	"career-quiz/internal/domain"
)

// wireAttempt accepts the attempt shapes the quiz service has been seen to
// send. Progress is reported through any of several fields; toDomain folds them
// into one canonical status.
type wireAttempt struct {
	ID               string  `json:"id"`
	MongoID          string  `json:"_id"`
	AttemptID        string  `json:"attemptId"`
	QuizID           string  `json:"quizId"`
	CurrentStepIndex int     `json:"currentStepIndex"`
	Status           string  `json:"status"`
	State            string  `json:"state"`
	Completed        *bool   `json:"completed"`
	IsCompleted      *bool   `json:"isCompleted"`
	FinishedAt       *string `json:"finishedAt"`
	CompletedAt      *string `json:"completedAt"`
}

func (w wireAttempt) toDomain() domain.Attempt {
	id := w.ID
	for _, alt := range []string{w.MongoID, w.AttemptID} {
		if id == "" {
			id = alt
		}
	}
	step := w.CurrentStepIndex
	if step < 0 {
		step = 0
	}
	return domain.Attempt{
		ID:               id,
		QuizID:           w.QuizID,
		CurrentStepIndex: step,
		Status:           w.status(),
	}
}

// status prefers an explicit status string, then boolean flags, then
// completion timestamps.
func (w wireAttempt) status() domain.AttemptStatus {
	for _, raw := range []string{w.Status, w.State} {
		if s := parseStatus(raw); s != domain.AttemptUnknown {
			return s
		}
	}
	for _, flag := range []*bool{w.Completed, w.IsCompleted} {
		if flag == nil {
			continue
		}
		if *flag {
			return domain.AttemptCompleted
		}
		return domain.AttemptInProgress
	}
	for _, ts := range []*string{w.FinishedAt, w.CompletedAt} {
		if ts != nil && *ts != "" {
			return domain.AttemptCompleted
		}
	}
	return domain.AttemptUnknown
}

func parseStatus(raw string) domain.AttemptStatus {
	norm := strings.NewReplacer("_", "-", " ", "-").Replace(strings.ToLower(strings.TrimSpace(raw)))
	switch norm {
	case "in-progress", "inprogress", "active", "started", "ongoing", "pending":
		return domain.AttemptInProgress
	case "completed", "complete", "finished", "done", "submitted":
		return domain.AttemptCompleted
	default:
		return domain.AttemptUnknown
	}
}
