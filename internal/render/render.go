// Package render turns quiz questions into interactive prompts and captures the
// value chosen for each one.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"career-quiz/internal/domain"
)

// ErrUnrecognized is returned by Input when the text does not select a value.
var ErrUnrecognized = errors.New("unrecognized input")

// OnChange receives the captured value after each successful interaction.
type OnChange func(value any)

// Renderer presents one question and interprets interactions with it.
type Renderer interface {
	Question() domain.Question
	// View describes the control for non-terminal front ends.
	View() View
	// Render writes the prompt and its choices.
	Render(w io.Writer) error
	// Input interprets one interaction. It calls OnChange exactly once on
	// success and not at all on failure.
	Input(raw string) error
}

// View is a transport-neutral description of a rendered question.
type View struct {
	QuestionID string              `json:"questionId"`
	Kind       domain.QuestionKind `json:"kind"`
	Prompt     string              `json:"prompt"`
	Choices    []string            `json:"choices,omitempty"`
	Min        *int                `json:"min,omitempty"`
	Max        *int                `json:"max,omitempty"`
	Default    *int                `json:"default,omitempty"`
	Category   string              `json:"category,omitempty"`
}

// For selects the renderer for the question's kind. The question must already
// have passed domain.ValidateQuiz.
func For(q domain.Question, onChange OnChange) (Renderer, error) {
	if onChange == nil {
		onChange = func(any) {}
	}
	switch q.Kind {
	case domain.KindSingleChoice:
		return &singleChoice{q: q, onChange: onChange}, nil
	case domain.KindNumericRange:
		return newNumericRange(q, onChange), nil
	case domain.KindOrdinalScale:
		return &ordinalScale{q: q, onChange: onChange}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, q.Kind)
	}
}

// ForStep builds renderers for every question of a step, in order. Each
// renderer reports its question id with the value.
func ForStep(step domain.Step, onChange func(questionID string, value any)) ([]Renderer, error) {
	renderers := make([]Renderer, 0, len(step.Questions))
	for _, q := range step.Questions {
		id := q.ID
		r, err := For(q, func(value any) { onChange(id, value) })
		if err != nil {
			return nil, err
		}
		renderers = append(renderers, r)
	}
	return renderers, nil
}

func baseView(q domain.Question) View {
	return View{
		QuestionID: q.ID,
		Kind:       q.Kind,
		Prompt:     q.Prompt,
		Category:   q.Category,
	}
}

func writeLines(w io.Writer, lines ...string) error {
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}
