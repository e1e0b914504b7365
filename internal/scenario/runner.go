// Package scenario runs a step tree against an external harness: it
// suspends the harness for the tree's worst case, executes the tree on the
// scenario loop and resumes the harness exactly once.
package scenario

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stepchain/internal/core"
	"stepchain/internal/log"
	"stepchain/internal/o11y"
)

const tracerName = "stepchain/scenario"

// Runner associates one step tree with one harness for a single run.
type Runner struct {
	step    core.Step
	harness Harness
	name    string
	runID   string
}

// Option configures a Runner.
type Option func(*Runner)

// WithName sets the scenario name used in logs and spans.
func WithName(name string) Option {
	return func(r *Runner) { r.name = name }
}

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// NewRunner creates a runner for s.
func NewRunner(s core.Step, h Harness, opts ...Option) *Runner {
	r := &Runner{step: s, harness: h}
	for _, opt := range opts {
		opt(r)
	}
	if r.name == "" {
		r.name = s.Name()
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	return r
}

// RunID returns the id stamped on this run's logs, spans and events.
func (r *Runner) RunID() string {
	return r.runID
}

// Run suspends the harness for the step's worst case and posts execution
// onto scope.Loop. It returns immediately; the harness is resumed exactly
// once when the step completes.
func (r *Runner) Run(scope *core.Scope) {
	timeout := r.step.WorstCase()

	ctx := log.With(scope.Ctx(), log.RunID(r.runID), log.Scenario(r.name))
	ctx, span := otel.Tracer(tracerName).Start(ctx, "scenario.run", trace.WithAttributes(
		attribute.String(o11y.AttrRunID, r.runID),
		attribute.String(o11y.AttrScenario, r.name),
		attribute.Int64(o11y.AttrWorstCase, timeout.Milliseconds()),
	))

	run := scope.WithContext(ctx)
	run.RunID = r.runID

	var once sync.Once
	finish := func(err error) {
		once.Do(func() {
			r.end(ctx, span, err)
			r.harness.Resume(func() {
				if err != nil {
					r.harness.Fail(FormatFailure(err))
				}
			})
		})
	}

	log.Info(ctx, "scenario started", "worst_case", timeout)
	r.harness.Suspend(timeout)
	run.Loop.Post(func() { r.step.Execute(run, finish) })
}

func (r *Runner) end(ctx context.Context, span trace.Span, err error) {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error(ctx, "scenario failed", log.Err(err))
		return
	}
	span.SetStatus(codes.Ok, "")
	log.Info(ctx, "scenario passed")
}

// FormatFailure renders err for the harness, adding expected and actual
// lines when the error carries them.
func FormatFailure(err error) string {
	return core.Describe(err)
}
