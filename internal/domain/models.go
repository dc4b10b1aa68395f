package domain

import "github.com/samber/lo"

// QuestionKind selects how a question is rendered and how its value is captured.
type QuestionKind string

const (
	KindSingleChoice QuestionKind = "single-choice"
	KindNumericRange QuestionKind = "numeric-range"
	KindOrdinalScale QuestionKind = "ordinal-scale"
)

const (
	// DefaultQuestionSeconds applies to questions without a time limit.
	DefaultQuestionSeconds = 20
	// MinStepSeconds is the floor for a whole step.
	MinStepSeconds = 10
)

// Question is a single prompt inside a step. Only the attributes of its kind are set.
type Question struct {
	ID               string       `json:"id" validate:"required"`
	Kind             QuestionKind `json:"kind" validate:"required,oneof=single-choice numeric-range ordinal-scale"`
	Prompt           string       `json:"prompt"`
	Options          []string     `json:"options,omitempty"`
	Min              *int         `json:"min,omitempty"`
	Max              *int         `json:"max,omitempty"`
	Scale            int          `json:"scale,omitempty"`
	Labels           []string     `json:"labels,omitempty"`
	TimeLimitSeconds *int         `json:"timeLimitSeconds,omitempty" validate:"omitempty,gt=0"`
	Category         string       `json:"category,omitempty"`
}

// TimeLimit returns the question's limit in seconds, defaulting when unset.
func (q Question) TimeLimit() int {
	if q.TimeLimitSeconds == nil || *q.TimeLimitSeconds <= 0 {
		return DefaultQuestionSeconds
	}
	return *q.TimeLimitSeconds
}

// Step is one page of the quiz; its questions are answered and submitted together.
type Step struct {
	Questions []Question `json:"questions" validate:"required,min=1,dive"`
}

// TimeLimit is the slowest question's limit, never below MinStepSeconds.
func (s Step) TimeLimit() int {
	limits := lo.Map(s.Questions, func(q Question, _ int) int { return q.TimeLimit() })
	return lo.Max(append(limits, MinStepSeconds))
}

// Quiz is the definition served by the quiz API. Step order defines progression.
type Quiz struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Steps       []Step `json:"steps" validate:"required,min=1,dive"`
}

// AttemptStatus is the canonical progress state of an attempt.
type AttemptStatus string

const (
	AttemptUnknown    AttemptStatus = "unknown"
	AttemptInProgress AttemptStatus = "in-progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// Attempt is a user's run through a quiz, as reported by the quiz API.
type Attempt struct {
	ID               string        `json:"id"`
	QuizID           string        `json:"quizId"`
	CurrentStepIndex int           `json:"currentStepIndex"`
	Status           AttemptStatus `json:"status"`
}

// Response is the submitted answer to one question. Value is nil when unanswered.
type Response struct {
	QuestionID       string `json:"questionId"`
	Value            any    `json:"value"`
	TimeTakenSeconds int    `json:"timeTakenSeconds"`
}

// StepSubmission persists one completed step.
type StepSubmission struct {
	StepIndex int        `json:"stepIndex"`
	Responses []Response `json:"responses"`
}

// Answer is an Answer Map entry captured from a renderer.
type Answer struct {
	Value any
}
