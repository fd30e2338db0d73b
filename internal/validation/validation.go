// Package validation checks user input for rubrics, links and bug reports.
// Input is trimmed before the checks; optional fields that end up empty are
// returned as nil.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const errorPrefix = "💿 Please, correct your input:"

// FieldError is one failed constraint.
type FieldError struct {
	Field   string
	Message string
}

// Error lists every failed constraint of one input.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Format renders err as the corrective reply. Errors that are not
// validation failures render as their message.
func Format(err error) string {
	var verr *Error
	if !errors.As(err, &verr) {
		return err.Error()
	}
	lines := make([]string, 0, len(verr.Fields)+1)
	lines = append(lines, errorPrefix)
	for _, f := range verr.Fields {
		lines = append(lines, f.Field+": "+f.Message)
	}
	return strings.Join(lines, "\n")
}

// IsError reports whether err is a validation failure.
func IsError(err error) bool {
	var verr *Error
	return errors.As(err, &verr)
}

type rubricName struct {
	Value string `label:"Rubric name" validate:"min=1,max=20"`
}

type rubricDescription struct {
	Value *string `label:"Rubric description" validate:"omitempty,max=200"`
}

type linkURL struct {
	Value string `label:"Link" validate:"min=3,max=200"`
}

type linkDescription struct {
	Value *string `label:"Link description" validate:"omitempty,max=20"`
}

type bugMessage struct {
	Value string `label:"Bug message" validate:"min=10,max=200"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	return v
}

// RubricName validates a rubric name: 1 to 20 characters.
func RubricName(in string) (string, error) {
	v := rubricName{Value: strings.TrimSpace(in)}
	return v.Value, check(v)
}

// RubricDescription validates an optional rubric description of up to 200 characters.
func RubricDescription(in string) (*string, error) {
	v := rubricDescription{Value: optional(in)}
	return v.Value, check(v)
}

// LinkURL validates a link url: 3 to 200 characters.
func LinkURL(in string) (string, error) {
	v := linkURL{Value: strings.TrimSpace(in)}
	return v.Value, check(v)
}

// LinkDescription validates an optional link description of up to 20 characters.
func LinkDescription(in string) (*string, error) {
	v := linkDescription{Value: optional(in)}
	return v.Value, check(v)
}

// BugMessage validates a bug report: 10 to 200 characters.
func BugMessage(in string) (string, error) {
	v := bugMessage{Value: strings.TrimSpace(in)}
	return v.Value, check(v)
}

func optional(in string) *string {
	s := strings.TrimSpace(in)
	if s == "" {
		return nil
	}
	return &s
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation: %w", err)
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("ensure this value has at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
	case "required":
		return "field required"
	default:
		return fmt.Sprintf("failed the %q check", fe.Tag())
	}
}
