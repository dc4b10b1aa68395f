package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Use JSON tag names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(questionStructLevel, Question{})
	return v
}

// questionStructLevel checks the attributes required by each question kind.
func questionStructLevel(sl validator.StructLevel) {
	q := sl.Current().Interface().(Question)
	switch q.Kind {
	case KindSingleChoice:
		if len(q.Options) == 0 {
			sl.ReportError(q.Options, "options", "Options", "required", "")
		}
	case KindNumericRange:
		if q.Min == nil {
			sl.ReportError(q.Min, "min", "Min", "required", "")
		}
		if q.Max == nil {
			sl.ReportError(q.Max, "max", "Max", "required", "")
		}
		if q.Min != nil && q.Max != nil && *q.Min > *q.Max {
			sl.ReportError(q.Max, "max", "Max", "gtefield", "min")
		}
	case KindOrdinalScale:
		if q.Scale < 2 {
			sl.ReportError(q.Scale, "scale", "Scale", "min", "2")
		}
	}
}

// Validate runs struct validation rules on v.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return errors.New(describe(err))
	}
	return nil
}

// ValidateQuiz checks a definition before it is rendered: non-empty steps and
// questions, a supported kind with its attributes, and unique question ids.
func ValidateQuiz(q Quiz) error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidQuiz, describe(err))
	}
	seen := make(map[string]struct{})
	for _, step := range q.Steps {
		for _, question := range step.Questions {
			if _, dup := seen[question.ID]; dup {
				return fmt.Errorf("%w: duplicate question id %q", ErrInvalidQuiz, question.ID)
			}
			seen[question.ID] = struct{}{}
		}
	}
	return nil
}

func describe(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fe.Namespace()+" "+rule)
	}
	return strings.Join(parts, "; ")
}
