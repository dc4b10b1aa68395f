package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"career-quiz/internal/domain"
)

// singleChoice captures the selected option's label, not its position, so the
// value stays meaningful without the option order.
type singleChoice struct {
	q        domain.Question
	onChange OnChange
}

func (r *singleChoice) Question() domain.Question { return r.q }

func (r *singleChoice) View() View {
	v := baseView(r.q)
	v.Choices = append([]string(nil), r.q.Options...)
	return v
}

func (r *singleChoice) Render(w io.Writer) error {
	lines := []string{r.q.Prompt}
	for i, opt := range r.q.Options {
		lines = append(lines, fmt.Sprintf("  %d) %s", i+1, opt))
	}
	return writeLines(w, lines...)
}

func (r *singleChoice) Input(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrUnrecognized
	}
	for _, opt := range r.q.Options {
		if strings.EqualFold(opt, raw) {
			r.onChange(opt)
			return nil
		}
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= len(r.q.Options) {
		r.onChange(r.q.Options[n-1])
		return nil
	}
	return fmt.Errorf("%w: %q is not one of the options", ErrUnrecognized, raw)
}
