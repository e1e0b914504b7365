package script

import (
	"time"

	"stepchain/internal/batch"
	"stepchain/internal/core"
	"stepchain/internal/template"
)

// deferred calls an extension when it runs, expanding its arguments
// against the scope variables at that point. Its worst case is that of the
// step built from the compile-time arguments.
type deferred struct {
	name  string
	do    string
	args  []any
	opts  batch.Options
	worst time.Duration
}

var _ core.Step = (*deferred)(nil)

// newDeferred validates the call against preview, the arguments with
// run-time placeholders left unexpanded.
func newDeferred(b *batch.Batch, do string, raw, preview []any) (*deferred, error) {
	scratch := b.Nested()
	if err := scratch.TryCall(do, preview...); err != nil {
		return nil, err
	}
	s := scratch.Steps()[0]
	return &deferred{
		name:  s.Name(),
		do:    do,
		args:  raw,
		opts:  b.Options(),
		worst: s.WorstCase(),
	}, nil
}

func (d *deferred) Name() string {
	return d.name
}

func (d *deferred) WorstCase() time.Duration {
	return d.worst
}

func (d *deferred) Execute(scope *core.Scope, done core.Done) {
	fail := func(err error) { scope.Loop.Post(func() { done(err) }) }

	args, err := template.SubstituteArgs(d.args, scope.Vars)
	if err != nil {
		fail(core.Errorf("%s: %w", d.do, err))
		return
	}
	b := batch.New(batch.WithOptions(d.opts), batch.WithName(d.name))
	if err := b.TryCall(d.do, args...); err != nil {
		fail(core.Errorf("%s: %w", d.do, err))
		return
	}
	b.Steps()[0].Execute(scope, done)
}
