package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"career-quiz/internal/domain"
)

// ordinalScale captures a 1-based position on a scale of q.Scale points.
type ordinalScale struct {
	q        domain.Question
	onChange OnChange
}

// labelled reports whether every point has a custom label; otherwise points are
// shown as bare numbers.
func (r *ordinalScale) labelled() bool {
	return len(r.q.Labels) == r.q.Scale
}

func (r *ordinalScale) points() []string {
	if r.labelled() {
		return append([]string(nil), r.q.Labels...)
	}
	points := make([]string, r.q.Scale)
	for i := range points {
		points[i] = strconv.Itoa(i + 1)
	}
	return points
}

func (r *ordinalScale) Question() domain.Question { return r.q }

func (r *ordinalScale) View() View {
	v := baseView(r.q)
	v.Choices = r.points()
	return v
}

func (r *ordinalScale) Render(w io.Writer) error {
	if !r.labelled() {
		return writeLines(w, r.q.Prompt, "  "+strings.Join(r.points(), "  "))
	}
	lines := []string{r.q.Prompt}
	for i, label := range r.q.Labels {
		lines = append(lines, fmt.Sprintf("  %d) %s", i+1, label))
	}
	return writeLines(w, lines...)
}

func (r *ordinalScale) Input(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrUnrecognized
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= r.q.Scale {
		r.onChange(n)
		return nil
	}
	if r.labelled() {
		for i, label := range r.q.Labels {
			if strings.EqualFold(label, raw) {
				r.onChange(i + 1)
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %q is not a point on the scale", ErrUnrecognized, raw)
}
