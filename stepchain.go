// Package stepchain expresses multi-stage functional test scenarios as one
// linear chain of steps instead of nested wait and resume callbacks.
//
//	b := stepchain.New().
//		WaitAndClick("#login", 500*time.Millisecond).
//		SetValue("#user", "alice")
//	stepchain.Run(t, b, stepchain.WithPage(page))
package stepchain

import (
	"testing"
	"time"

	"stepchain/internal/batch"
	"stepchain/internal/core"
	"stepchain/internal/dom"
	"stepchain/internal/scenario"
	"stepchain/internal/step"
)

// Step is a unit of asynchronous work with a static worst-case duration.
type Step = core.Step

// Scope is handed to every step of a run.
type Scope = core.Scope

// Done receives a step's single completion signal.
type Done = core.Done

// Batch is an ordered, fail-fast sequence of steps.
type Batch = batch.Batch

// Options configures the waits of a batch.
type Options = batch.Options

// WaitOpts overrides batch defaults for a single wait.
type WaitOpts = batch.WaitOpts

// Condition is a WaitUntil predicate.
type Condition = batch.Condition

// Generator builds the step for a named extension.
type Generator = batch.Generator

// Page is the in-memory document used by the bundled helpers.
type Page = dom.Page

// Node is an element of a Page.
type Node = dom.Node

// Harness is the external test context a scenario suspends.
type Harness = scenario.Harness

// Errors delivered by steps or returned at construction.
type (
	StepError         = core.StepError
	TimeoutError      = core.TimeoutError
	ConstructionError = core.ConstructionError
)

var (
	ErrConstruction = core.ErrConstruction
	ErrTimeout      = core.ErrTimeout
)

// DefaultDuration is the worst case of a step that declares none.
const DefaultDuration = step.DefaultDuration

// New creates an empty batch.
func New(opts ...batch.Option) *Batch {
	return batch.New(opts...)
}

// Batch options.
var (
	WithTimeout   = batch.WithTimeout
	WithShortWait = batch.WithShortWait
	WithPoll      = batch.WithPoll
	WithOptions   = batch.WithOptions
	WithName      = batch.WithName
)

// Extend registers a named helper callable on every batch with Call.
func Extend(name string, gen Generator) error {
	return batch.Extend(name, gen)
}

// Predicate adapts a boolean check for WaitUntil.
func Predicate(fn func() bool) Condition {
	return batch.Predicate(fn)
}

// Errorf builds a step failure.
func Errorf(format string, args ...any) *StepError {
	return core.Errorf(format, args...)
}

// AssertEqual fails with expected and actual values when they differ.
func AssertEqual(expected, actual any, msg string) error {
	return core.AssertEqual(expected, actual, msg)
}

// NewPage creates an in-memory page.
func NewPage(nodes ...*Node) *Page {
	return dom.NewPage(nodes...)
}

// LoadPage reads a JSON or YAML page fixture.
func LoadPage(path string) (*Page, error) {
	return dom.LoadPage(path)
}

// Run options.
var (
	WithPage      = scenario.WithPage
	WithContext   = scenario.WithContext
	WithVariables = scenario.WithVariables
	WithReporter  = scenario.WithReporter
	WithPacer     = scenario.WithPacer
)

// Run executes s as part of test t and blocks until it completes or its
// worst case elapses.
func Run(t testing.TB, s Step, opts ...scenario.RunOption) {
	t.Helper()
	scenario.Run(t, s, opts...)
}

// WorstCase sums the worst cases of steps.
func WorstCase(steps ...Step) time.Duration {
	var total time.Duration
	for _, s := range steps {
		total += s.WorstCase()
	}
	return total
}
