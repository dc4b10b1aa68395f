package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"career-quiz/internal/domain"
)

func intPtr(v int) *int { return &v }

type capture struct {
	values []any
}

func (c *capture) onChange(v any) { c.values = append(c.values, v) }

func TestSingleChoiceCapturesLabel(t *testing.T) {
	var c capture
	r, err := For(domain.Question{ID: "q1", Kind: domain.KindSingleChoice, Prompt: "Pick", Options: []string{"A", "B"}}, c.onChange)
	if err != nil {
		t.Fatalf("for: %v", err)
	}

	if err := r.Input("2"); err != nil {
		t.Fatalf("input by number: %v", err)
	}
	if err := r.Input("a"); err != nil {
		t.Fatalf("input by label: %v", err)
	}
	if err := r.Input("3"); !errors.Is(err, ErrUnrecognized) {
		t.Fatalf("expected unrecognized, got %v", err)
	}
	if len(c.values) != 2 || c.values[0] != "B" || c.values[1] != "A" {
		t.Fatalf("expected [B A], got %v", c.values)
	}

	var out bytes.Buffer
	if err := r.Render(&out); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out.String(), "2) B") {
		t.Fatalf("expected numbered options, got %q", out.String())
	}
}

func TestNumericRangeDefaultsToMidpointAndClamps(t *testing.T) {
	var c capture
	r, err := For(domain.Question{ID: "q1", Kind: domain.KindNumericRange, Min: intPtr(0), Max: intPtr(10)}, c.onChange)
	if err != nil {
		t.Fatalf("for: %v", err)
	}
	view := r.View()
	if view.Default == nil || *view.Default != 5 {
		t.Fatalf("expected midpoint default 5, got %v", view.Default)
	}
	if len(c.values) != 0 {
		t.Fatalf("default must not count as an answer, got %v", c.values)
	}

	for _, in := range []string{"7", "42", "-3"} {
		if err := r.Input(in); err != nil {
			t.Fatalf("input %q: %v", in, err)
		}
	}
	if err := r.Input(""); !errors.Is(err, ErrUnrecognized) {
		t.Fatalf("blank input must not be an interaction, got %v", err)
	}
	if err := r.Input("seven"); !errors.Is(err, ErrUnrecognized) {
		t.Fatalf("expected unrecognized, got %v", err)
	}
	want := []any{7, 10, 0}
	if len(c.values) != len(want) {
		t.Fatalf("expected %v, got %v", want, c.values)
	}
	for i := range want {
		if c.values[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, c.values)
		}
	}
}

func TestOrdinalScaleIsOneBased(t *testing.T) {
	var c capture
	q := domain.Question{
		ID:     "q1",
		Kind:   domain.KindOrdinalScale,
		Scale:  3,
		Labels: []string{"Low", "Mid", "High"},
	}
	r, err := For(q, c.onChange)
	if err != nil {
		t.Fatalf("for: %v", err)
	}
	if err := r.Input("high"); err != nil {
		t.Fatalf("input label: %v", err)
	}
	if err := r.Input("1"); err != nil {
		t.Fatalf("input number: %v", err)
	}
	if err := r.Input("0"); !errors.Is(err, ErrUnrecognized) {
		t.Fatalf("expected unrecognized, got %v", err)
	}
	if len(c.values) != 2 || c.values[0] != 3 || c.values[1] != 1 {
		t.Fatalf("expected [3 1], got %v", c.values)
	}
	if got := r.View().Choices; len(got) != 3 || got[0] != "Low" {
		t.Fatalf("expected labelled choices, got %v", got)
	}
}

func TestOrdinalScaleFallsBackToNumbers(t *testing.T) {
	q := domain.Question{
		ID:     "q1",
		Kind:   domain.KindOrdinalScale,
		Scale:  5,
		Labels: []string{"Low", "High"},
	}
	r, err := For(q, nil)
	if err != nil {
		t.Fatalf("for: %v", err)
	}
	choices := r.View().Choices
	if len(choices) != 5 || choices[0] != "1" || choices[4] != "5" {
		t.Fatalf("expected bare numbers, got %v", choices)
	}
	if err := r.Input("Low"); !errors.Is(err, ErrUnrecognized) {
		t.Fatalf("labels must be ignored when their count mismatches, got %v", err)
	}
}

func TestForRejectsUnknownKind(t *testing.T) {
	if _, err := For(domain.Question{ID: "q1", Kind: "essay"}, nil); !errors.Is(err, domain.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestForStepTagsQuestionIDs(t *testing.T) {
	step := domain.Step{Questions: []domain.Question{
		{ID: "q1", Kind: domain.KindSingleChoice, Options: []string{"A"}},
		{ID: "q2", Kind: domain.KindOrdinalScale, Scale: 5},
	}}
	got := map[string]any{}
	renderers, err := ForStep(step, func(id string, v any) { got[id] = v })
	if err != nil {
		t.Fatalf("for step: %v", err)
	}
	if len(renderers) != 2 {
		t.Fatalf("expected 2 renderers, got %d", len(renderers))
	}
	_ = renderers[1].Input("4")
	if got["q2"] != 4 || len(got) != 1 {
		t.Fatalf("expected q2=4 only, got %v", got)
	}
}
