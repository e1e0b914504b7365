package scenario

import (
	"context"
	"testing"

	"stepchain/internal/core"
	"stepchain/internal/dom"
	"stepchain/internal/loop"
)

type config struct {
	ctx      context.Context
	doc      dom.Document
	input    dom.Input
	vars     core.Variables
	reporter core.Reporter
	pacer    core.Pacer
	runner   []Option
}

// RunOption configures Run.
type RunOption func(*config)

// WithContext sets the base context, typically one carrying a logger.
func WithContext(ctx context.Context) RunOption {
	return func(c *config) { c.ctx = ctx }
}

// WithPage uses p as both document and input.
func WithPage(p *dom.Page) RunOption {
	return func(c *config) { c.doc, c.input = p, p }
}

// WithDOM sets the document and input separately.
func WithDOM(doc dom.Document, input dom.Input) RunOption {
	return func(c *config) { c.doc, c.input = doc, input }
}

// WithVariables shares vars with the scenario.
func WithVariables(vars core.Variables) RunOption {
	return func(c *config) { c.vars = vars }
}

// WithReporter receives an event for every completed step.
func WithReporter(r core.Reporter) RunOption {
	return func(c *config) { c.reporter = r }
}

// WithPacer spaces simulated input.
func WithPacer(p core.Pacer) RunOption {
	return func(c *config) { c.pacer = p }
}

// WithRunner passes options to the underlying Runner.
func WithRunner(opts ...Option) RunOption {
	return func(c *config) { c.runner = append(c.runner, opts...) }
}

// scope builds the execution scope for a run on l.
func (c *config) scope(l *loop.Loop) *core.Scope {
	vars := c.vars
	if vars == nil {
		vars = core.NewVariables()
	}
	return &core.Scope{
		Context:  c.ctx,
		Loop:     l,
		Document: c.doc,
		Input:    c.input,
		Vars:     vars,
		Reporter: c.reporter,
		Pacer:    c.pacer,
		Clock:    core.RealClock{},
	}
}

// Run executes s as part of test t and blocks until it finishes. Step
// failures are reported with t.Error; a run exceeding its worst case fails
// the test with t.Fatalf.
func Run(t testing.TB, s core.Step, opts ...RunOption) {
	t.Helper()
	c := &config{ctx: t.Context()}
	for _, opt := range opts {
		opt(c)
	}

	l := loop.New()
	stop := l.Start(c.ctx)
	defer stop()

	h := NewTB(t)
	NewRunner(s, h, c.runner...).Run(c.scope(l))
	h.Wait()
}

// Execute runs s with the CLI harness and returns its failure, if any.
func Execute(ctx context.Context, s core.Step, h *CLI, opts ...RunOption) (runID string, err error) {
	c := &config{ctx: ctx}
	for _, opt := range opts {
		opt(c)
	}

	l := loop.New()
	stop := l.Start(ctx)
	defer stop()

	r := NewRunner(s, h, c.runner...)
	r.Run(c.scope(l))
	return r.RunID(), h.Wait(ctx)
}
