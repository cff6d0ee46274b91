// Package validation checks movies, list options and ratings before they
// reach the stores. Every rule is evaluated and the violations are reported
// together.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Failure is a single field-level violation.
type Failure struct {
	Field   string `json:"propertyName"`
	Message string `json:"message"`
}

// Error carries every violation found while validating one value.
type Error struct {
	Failures []Failure
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Failures extracts the violations from err, reporting false when err is not
// a validation error.
func Failures(err error) ([]Failure, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Failures, true
	}
	return nil, false
}

// NewError wraps failures in an *Error, returning nil when there are none.
func NewError(failures ...Failure) error {
	if len(failures) == 0 {
		return nil
	}
	return &Error{Failures: failures}
}

// collector accumulates failures from validator/v10 checks.
type collector struct {
	validate *validator.Validate
	failures []Failure
}

func newCollector(validate *validator.Validate) *collector {
	return &collector{validate: validate}
}

// check runs a validator/v10 tag against a single value and records a failure
// for each rule it breaks.
func (c *collector) check(field string, value any, tag string) {
	err := c.validate.Var(value, tag)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		c.add(field, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		c.add(field, message(field, fe))
	}
}

func (c *collector) add(field, msg string) {
	c.failures = append(c.failures, Failure{Field: field, Message: msg})
}

func (c *collector) err() error {
	return NewError(c.failures...)
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "min":
		return fmt.Sprintf("'%s' must not be empty.", field)
	case "gte":
		return fmt.Sprintf("'%s' must be greater than or equal to '%s'.", field, fe.Param())
	case "lte":
		return fmt.Sprintf("'%s' must be less than or equal to '%s'.", field, fe.Param())
	default:
		return fmt.Sprintf("'%s' is invalid.", field)
	}
}
