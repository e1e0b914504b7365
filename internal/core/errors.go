package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
)

var (
	// ErrConstruction matches every ConstructionError via errors.Is.
	ErrConstruction = errors.New("invalid step construction")
	// ErrTimeout matches every TimeoutError via errors.Is.
	ErrTimeout = errors.New("step timed out")
)

// ConstructionError reports a malformed step definition. It is returned
// synchronously at build time and never delivered through a Done callback.
type ConstructionError struct {
	Reason string
}

func (e *ConstructionError) Error() string {
	return "step construction: " + e.Reason
}

func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstruction
}

// Constructionf builds a ConstructionError.
func Constructionf(format string, args ...any) error {
	return &ConstructionError{Reason: fmt.Sprintf(format, args...)}
}

// Assertion is implemented by errors that carry expected/actual values.
type Assertion interface {
	Expected() (any, bool)
	Actual() (any, bool)
}

// StepError is a failure raised while a step body runs.
type StepError struct {
	Message string
	Err     error

	expected, actual       any
	hasExpected, hasActual bool
}

// Errorf builds a StepError with a formatted message. A %w verb is honoured
// for unwrapping.
func Errorf(format string, args ...any) *StepError {
	wrapped := fmt.Errorf(format, args...)
	return &StepError{Message: wrapped.Error(), Err: errors.Unwrap(wrapped)}
}

func (e *StepError) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// WithExpected attaches the expected value of an assertion-style failure.
func (e *StepError) WithExpected(v any) *StepError {
	e.expected, e.hasExpected = v, true
	return e
}

// WithActual attaches the actual value of an assertion-style failure.
func (e *StepError) WithActual(v any) *StepError {
	e.actual, e.hasActual = v, true
	return e
}

// Expected implements Assertion.
func (e *StepError) Expected() (any, bool) {
	return e.expected, e.hasExpected
}

// Actual implements Assertion.
func (e *StepError) Actual() (any, bool) {
	return e.actual, e.hasActual
}

// AssertEqual returns nil when expected and actual are equal, otherwise a
// StepError carrying both values.
func AssertEqual(expected, actual any, msg string) error {
	if cmp.Equal(expected, actual) {
		return nil
	}
	if msg == "" {
		msg = "values differ"
	}
	return (&StepError{Message: msg}).WithExpected(expected).WithActual(actual)
}

// TimeoutError is raised when a polling step exhausts its budget.
type TimeoutError struct {
	StepError
	After time.Duration
}

// NewTimeoutError builds a TimeoutError. An empty message gets a generic one.
func NewTimeoutError(msg string, after time.Duration) *TimeoutError {
	if msg == "" {
		msg = fmt.Sprintf("condition not met within %s", after)
	}
	return &TimeoutError{StepError: StepError{Message: msg}, After: after}
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// PanicError converts a recovered panic value into an error. Panics that
// already carry an error are returned unchanged.
func PanicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &StepError{Message: fmt.Sprintf("panic: %v", r)}
}

// Describe renders err with expected and actual lines when an Assertion in
// its chain carries them.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(err.Error())

	var a Assertion
	if errors.As(err, &a) {
		if v, ok := a.Expected(); ok {
			fmt.Fprintf(&sb, "\nexpected: %v", v)
		}
		if v, ok := a.Actual(); ok {
			fmt.Fprintf(&sb, "\nactual: %v", v)
		}
	}
	return sb.String()
}
