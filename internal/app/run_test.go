package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"career-quiz/internal/app"
	"career-quiz/internal/domain"
	"career-quiz/internal/render"
	"career-quiz/internal/timer"
)

func readyRun(t *testing.T, backend *fakeBackend) *app.Run {
	t.Helper()
	ctrl := newTestController(backend)
	if state := ctrl.Bootstrap(context.Background()); state != app.StateReady {
		t.Fatalf("bootstrap: %s (%s)", state, ctrl.Err())
	}
	return app.NewRun(ctrl, ctrl.Quiz(), ctrl.Attempt())
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(careerQuiz())
	run := readyRun(t, backend)

	if run.TimeLimit() != 20 {
		t.Fatalf("expected default step limit 20, got %d", run.TimeLimit())
	}
	step, _ := run.CurrentStep()
	renderers, err := render.ForStep(step, func(id string, v any) { run.SetAnswer(id, v) })
	if err != nil {
		t.Fatalf("renderers: %v", err)
	}
	if err := renderers[0].Input("B"); err != nil {
		t.Fatalf("select: %v", err)
	}

	out, err := run.Submit(ctx)
	if err != nil {
		t.Fatalf("submit step 0: %v", err)
	}
	if out.Finished || out.Next != 1 || !out.Saved {
		t.Fatalf("expected advance to step 1, got %+v", out)
	}
	subs := backend.Submissions()
	if len(subs) != 1 {
		t.Fatalf("expected one submission, got %d", len(subs))
	}
	first := subs[0]
	if first.StepIndex != 0 || len(first.Responses) != 1 {
		t.Fatalf("unexpected payload %+v", first)
	}
	if r := first.Responses[0]; r.QuestionID != "env" || r.Value != "B" || r.TimeTakenSeconds != 20 {
		t.Fatalf("unexpected response %+v", r)
	}

	if len(run.Answers()) != 0 {
		t.Fatalf("expected answer map cleared after advancing, got %v", run.Answers())
	}
	if run.StepIndex() != 1 || run.TimeLimit() != 25 {
		t.Fatalf("expected step 1 with limit 25, got step %d limit %d", run.StepIndex(), run.TimeLimit())
	}
	if backend.count("finish") != 0 {
		t.Fatalf("finish must wait for the last step")
	}

	out, err = run.Submit(ctx)
	if err != nil {
		t.Fatalf("submit step 1: %v", err)
	}
	if !out.Finished || out.Attempt.ID != "att-1" {
		t.Fatalf("expected finished attempt att-1, got %+v", out)
	}
	if backend.count("finish") != 1 {
		t.Fatalf("expected exactly one finish call, got %d", backend.count("finish"))
	}
	if _, err := run.Submit(ctx); !errors.Is(err, domain.ErrRunFinished) {
		t.Fatalf("expected ErrRunFinished, got %v", err)
	}
}

func TestUnansweredQuestionsSubmitAsNull(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(careerQuiz())
	backend.startStep = 1
	run := readyRun(t, backend)

	if !run.SetAnswer("people", 4) {
		t.Fatalf("expected answer accepted")
	}
	if _, err := run.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	sub := backend.Submissions()[0]
	if sub.StepIndex != 1 || len(sub.Responses) != 2 {
		t.Fatalf("expected both questions of step 1, got %+v", sub)
	}
	if sub.Responses[0].QuestionID != "hours" || sub.Responses[0].Value != nil || sub.Responses[0].TimeTakenSeconds != 25 {
		t.Fatalf("expected unanswered hours with nil value, got %+v", sub.Responses[0])
	}
	if sub.Responses[1].QuestionID != "people" || sub.Responses[1].Value != 4 || sub.Responses[1].TimeTakenSeconds != 20 {
		t.Fatalf("unexpected people response %+v", sub.Responses[1])
	}
}

func TestSubmitFailureBlocksAdvance(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(careerQuiz())
	backend.failSubmit = 1
	run := readyRun(t, backend)
	run.SetAnswer("env", "A")

	if _, err := run.Submit(ctx); !errors.Is(err, errBackendDown) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if run.StepIndex() != 0 {
		t.Fatalf("step must not advance on failure, got %d", run.StepIndex())
	}
	if run.Answers()["env"].Value != "A" {
		t.Fatalf("answers must survive a failed submission, got %v", run.Answers())
	}

	out, err := run.Submit(ctx)
	if err != nil || out.Next != 1 {
		t.Fatalf("expected retry to advance, got %+v %v", out, err)
	}
	if backend.Submissions()[0].Responses[0].Value != "A" {
		t.Fatalf("expected retried payload to carry the kept answer")
	}
}

func TestFinishOnlyOnLastStep(t *testing.T) {
	ctx := context.Background()
	quiz := careerQuiz()
	quiz.Steps = append(quiz.Steps, domain.Step{Questions: []domain.Question{
		{ID: "team", Kind: domain.KindOrdinalScale, Scale: 3},
	}})
	backend := newFakeBackend(quiz)
	run := readyRun(t, backend)

	last := -1
	for i := 0; i < len(quiz.Steps); i++ {
		out, err := run.Submit(ctx)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if out.StepIndex != i || out.StepIndex <= last {
			t.Fatalf("expected step %d submitted, got %+v", i, out)
		}
		last = out.StepIndex
		wantFinish := 0
		if i == len(quiz.Steps)-1 {
			wantFinish = 1
		}
		if got := backend.count("finish"); got != wantFinish {
			t.Fatalf("after step %d expected %d finish calls, got %d", i, wantFinish, got)
		}
		if out.Finished != (wantFinish == 1) {
			t.Fatalf("after step %d unexpected finished flag %+v", i, out)
		}
		if !out.Finished && run.StepIndex() != i+1 {
			t.Fatalf("expected advance to %d, got %d", i+1, run.StepIndex())
		}
	}
}

func TestFinishFailureRetriesFinishOnly(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(careerQuiz())
	backend.startStep = 1
	backend.failFinish = 1
	run := readyRun(t, backend)

	out, err := run.Submit(ctx)
	if !errors.Is(err, errBackendDown) {
		t.Fatalf("expected finish error, got %v", err)
	}
	if !out.Saved || out.Finished {
		t.Fatalf("expected step saved but not finished, got %+v", out)
	}
	if run.Finished() {
		t.Fatalf("run must not be finished after finish failure")
	}

	out, err = run.Submit(ctx)
	if err != nil || !out.Finished {
		t.Fatalf("expected finish on retry, got %+v %v", out, err)
	}
	if backend.count("step") != 1 || backend.count("finish") != 2 {
		t.Fatalf("expected one step save and two finish calls, got %v", backend.Calls())
	}
}

type blockingStepper struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStepper) SaveStep(ctx context.Context, _ domain.StepSubmission) error {
	b.entered <- struct{}{}
	<-b.release
	return nil
}

func (b *blockingStepper) Finish(context.Context) (domain.Attempt, error) {
	return domain.Attempt{ID: "att-1"}, nil
}

func TestSubmitRejectsOverlap(t *testing.T) {
	stepper := &blockingStepper{entered: make(chan struct{}), release: make(chan struct{})}
	run := app.NewRun(stepper, careerQuiz(), domain.Attempt{ID: "att-1"})

	done := make(chan error, 1)
	go func() {
		_, err := run.Submit(context.Background())
		done <- err
	}()
	<-stepper.entered

	if _, err := run.Submit(context.Background()); !errors.Is(err, domain.ErrSubmissionPending) {
		t.Fatalf("expected ErrSubmissionPending, got %v", err)
	}
	if run.SetAnswer("env", "A") {
		t.Fatalf("answer must be rejected while the step is being submitted")
	}
	close(stepper.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if run.StepIndex() != 1 {
		t.Fatalf("expected exactly one advance, got step %d", run.StepIndex())
	}
	if len(run.Answers()) != 0 {
		t.Fatalf("expected no answers carried into step 1, got %v", run.Answers())
	}
}

func TestSetAnswerIgnoresOtherSteps(t *testing.T) {
	run := app.NewRun(nil, careerQuiz(), domain.Attempt{ID: "att-1"})
	if run.SetAnswer("people", 3) {
		t.Fatalf("answer for a later step must be rejected")
	}
	run.SetAnswer("env", "A")
	run.SetAnswer("env", "B")
	if got := run.Answers(); len(got) != 1 || got["env"].Value != "B" {
		t.Fatalf("expected overwrite by key, got %v", got)
	}
}

func TestTimerExpirySubmitsStep(t *testing.T) {
	backend := newFakeBackend(careerQuiz())
	run := readyRun(t, backend)

	submitted := make(chan app.Outcome, 1)
	countdown := timer.New(nil, func() {
		out, err := run.Submit(context.Background())
		if err == nil {
			submitted <- out
		}
	}, timer.WithInterval(time.Millisecond))
	countdown.Reset(run.TimeLimit())

	select {
	case out := <-submitted:
		if out.StepIndex != 0 || out.Next != 1 {
			t.Fatalf("unexpected outcome %+v", out)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expiry did not submit")
	}
	if v := backend.Submissions()[0].Responses[0].Value; v != nil {
		t.Fatalf("expected unanswered question submitted as nil, got %v", v)
	}
}
