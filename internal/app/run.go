package app

import (
	"context"
	"sync"

	"career-quiz/internal/domain"
	"github.com/samber/lo"
)

// Stepper persists a run's steps. *Controller implements it.
type Stepper interface {
	SaveStep(ctx context.Context, sub domain.StepSubmission) error
	Finish(ctx context.Context) (domain.Attempt, error)
}

// Outcome describes what a successful Submit did.
type Outcome struct {
	// StepIndex is the step that was submitted.
	StepIndex int
	// Saved is false when the step had already been saved by an earlier call
	// whose finish failed.
	Saved    bool
	Finished bool
	// Attempt is the finished attempt when Finished is set.
	Attempt domain.Attempt
	// Next is the step now active when Finished is not set.
	Next int
}

// Run drives one attempt from its current step to completion. It owns the
// Answer Map for the active step.
type Run struct {
	stepper Stepper
	quiz    domain.Quiz

	mu         sync.Mutex
	step       int
	answers    map[string]domain.Answer
	submitting bool
	finished   bool
}

// NewRun starts at the attempt's current step. The snapshot is not re-read later.
func NewRun(stepper Stepper, quiz domain.Quiz, attempt domain.Attempt) *Run {
	return &Run{
		stepper: stepper,
		quiz:    quiz,
		step:    attempt.CurrentStepIndex,
		answers: make(map[string]domain.Answer),
	}
}

func (r *Run) Quiz() domain.Quiz { return r.quiz }

func (r *Run) TotalSteps() int { return len(r.quiz.Steps) }

// StepIndex returns the active step.
func (r *Run) StepIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.step
}

// CurrentStep returns the active step, or false when every step has been saved.
func (r *Run) CurrentStep() (domain.Step, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentLocked()
}

// TimeLimit is the active step's limit in seconds.
func (r *Run) TimeLimit() int {
	step, _ := r.CurrentStep()
	return step.TimeLimit()
}

// SetAnswer overwrites the answer for a question of the active step. Values
// for other questions, or sent while the step is being submitted, are dropped
// and reported as false.
func (r *Run) SetAnswer(questionID string, value any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	step, ok := r.currentLocked()
	if !ok || r.finished || r.submitting {
		return false
	}
	if !lo.ContainsBy(step.Questions, func(q domain.Question) bool { return q.ID == questionID }) {
		return false
	}
	r.answers[questionID] = domain.Answer{Value: value}
	return true
}

// Answers returns a copy of the Answer Map.
func (r *Run) Answers() map[string]domain.Answer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]domain.Answer, len(r.answers))
	for k, v := range r.answers {
		out[k] = v
	}
	return out
}

// Payload builds the active step's submission in question order. Unanswered
// questions are included with a nil value; timeTakenSeconds is the question's
// own limit.
func (r *Run) Payload() domain.StepSubmission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payloadLocked()
}

func (r *Run) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

// Submit saves the active step and then either finishes the attempt (last
// step) or advances by one and clears the answers. On error nothing advances
// and the answers are kept, so the call can be retried. Manual submits and
// timer expiry both land here; only one submission runs at a time.
func (r *Run) Submit(ctx context.Context) (Outcome, error) {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return Outcome{}, domain.ErrRunFinished
	}
	if r.submitting {
		r.mu.Unlock()
		return Outcome{}, domain.ErrSubmissionPending
	}
	r.submitting = true
	index := r.step
	total := len(r.quiz.Steps)
	_, needsSave := r.currentLocked()
	sub := r.payloadLocked()
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.submitting = false
		r.mu.Unlock()
	}()

	out := Outcome{StepIndex: index}
	if needsSave {
		if err := r.stepper.SaveStep(ctx, sub); err != nil {
			return out, err
		}
		out.Saved = true
	} else {
		// every step is saved already; only the finish is outstanding
		out.StepIndex = total - 1
	}

	if index+1 < total {
		r.mu.Lock()
		r.step = index + 1
		r.answers = make(map[string]domain.Answer)
		r.mu.Unlock()
		out.Next = index + 1
		return out, nil
	}

	if needsSave {
		r.mu.Lock()
		r.step = total
		r.answers = make(map[string]domain.Answer)
		r.mu.Unlock()
	}
	attempt, err := r.stepper.Finish(ctx)
	if err != nil {
		return out, err
	}
	r.mu.Lock()
	r.finished = true
	r.mu.Unlock()
	out.Finished = true
	out.Attempt = attempt
	return out, nil
}

func (r *Run) currentLocked() (domain.Step, bool) {
	if r.step < 0 || r.step >= len(r.quiz.Steps) {
		return domain.Step{}, false
	}
	return r.quiz.Steps[r.step], true
}

func (r *Run) payloadLocked() domain.StepSubmission {
	step, _ := r.currentLocked()
	return domain.StepSubmission{
		StepIndex: r.step,
		Responses: lo.Map(step.Questions, func(q domain.Question, _ int) domain.Response {
			var value any
			if answer, ok := r.answers[q.ID]; ok {
				value = answer.Value
			}
			return domain.Response{
				QuestionID:       q.ID,
				Value:            value,
				TimeTakenSeconds: q.TimeLimit(),
			}
		}),
	}
}
