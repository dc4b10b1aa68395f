package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"career-quiz/internal/domain"
)

// numericRange captures an integer within [min, max]. Before any interaction
// the control shows the midpoint.
type numericRange struct {
	q        domain.Question
	onChange OnChange
	min, max int
}

func newNumericRange(q domain.Question, onChange OnChange) *numericRange {
	r := &numericRange{q: q, onChange: onChange}
	if q.Min != nil {
		r.min = *q.Min
	}
	if q.Max != nil {
		r.max = *q.Max
	}
	return r
}

// Midpoint is the value the control displays before the user moves it.
func (r *numericRange) Midpoint() int {
	return r.min + (r.max-r.min)/2
}

func (r *numericRange) Question() domain.Question { return r.q }

func (r *numericRange) View() View {
	v := baseView(r.q)
	low, high, mid := r.min, r.max, r.Midpoint()
	v.Min, v.Max, v.Default = &low, &high, &mid
	return v
}

func (r *numericRange) Render(w io.Writer) error {
	return writeLines(w,
		r.q.Prompt,
		fmt.Sprintf("  %d..%d [%d]", r.min, r.max, r.Midpoint()),
	)
}

// Input accepts an integer; values outside the range are clamped the way a
// range control would.
func (r *numericRange) Input(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrUnrecognized
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: %q is not a whole number", ErrUnrecognized, raw)
	}
	if n < r.min {
		n = r.min
	}
	if n > r.max {
		n = r.max
	}
	r.onChange(n)
	return nil
}
