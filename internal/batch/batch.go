// Package batch composes steps into strictly sequential batches and
// provides the standard wait and input helpers.
package batch

import (
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stepchain/internal/core"
	"stepchain/internal/log"
	"stepchain/internal/step"
)

const tracerName = "stepchain/batch"

// Batch is an ordered list of steps executed one after another. It is a
// core.Step itself, so batches nest.
type Batch struct {
	name string
	opts Options

	mu    sync.RWMutex
	steps []core.Step
}

var _ core.Step = (*Batch)(nil)

// New creates an empty batch over DefaultOptions.
func New(opts ...Option) *Batch {
	b := &Batch{name: "batch", opts: DefaultOptions()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Nested returns a new batch that starts from a copy of b's options with
// overrides applied. It is not added to b.
func (b *Batch) Nested(overrides ...Option) *Batch {
	return New(append([]Option{WithOptions(b.opts)}, overrides...)...)
}

func (b *Batch) Name() string {
	return b.name
}

// Options returns a copy of the batch configuration.
func (b *Batch) Options() Options {
	return b.opts
}

// Steps returns a snapshot of the children.
func (b *Batch) Steps() []core.Step {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]core.Step, len(b.steps))
	copy(out, b.steps)
	return out
}

// Len returns the number of children.
func (b *Batch) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.steps)
}

// Add appends item and returns b. A core.Step is appended as is and d is
// ignored; anything else is adapted into a leaf with duration d. Invalid
// items panic with a *core.ConstructionError.
func (b *Batch) Add(item any, d ...time.Duration) *Batch {
	if err := b.TryAdd(item, d...); err != nil {
		panic(err)
	}
	return b
}

// AddNamed is Add with an explicit name for adapted items.
func (b *Batch) AddNamed(name string, item any, d ...time.Duration) *Batch {
	if err := b.tryAdd(name, item, d); err != nil {
		panic(err)
	}
	return b
}

// TryAdd is Add returning the construction error instead of panicking.
func (b *Batch) TryAdd(item any, d ...time.Duration) error {
	return b.tryAdd("", item, d)
}

// AddSync appends a synchronous body.
func (b *Batch) AddSync(fn func(*core.Scope) error, d ...time.Duration) *Batch {
	return b.Add(step.Sync(fn), d...)
}

// AddAsync appends a body that signals its own completion.
func (b *Batch) AddAsync(fn func(*core.Scope, core.Done), d ...time.Duration) *Batch {
	return b.Add(step.Async(fn), d...)
}

func (b *Batch) tryAdd(name string, item any, d []time.Duration) error {
	if len(d) > 1 {
		return core.Constructionf("at most one duration allowed, got %d", len(d))
	}
	if s, ok := item.(core.Step); ok {
		if s == core.Step(b) {
			return core.Constructionf("batch cannot contain itself")
		}
		if nb, ok := s.(*Batch); ok && nb == nil {
			return core.Constructionf("nil batch")
		}
		if l, ok := s.(*step.Leaf); ok && l == nil {
			return core.Constructionf("nil leaf")
		}
		b.append(s)
		return nil
	}

	fn, err := step.Adapt(item)
	if err != nil {
		return err
	}
	var dur time.Duration
	if len(d) == 1 {
		dur = d[0]
	}
	if name == "" {
		name = fmt.Sprintf("step-%d", b.Len()+1)
	}
	leaf, err := step.NewLeaf(name, fn, dur)
	if err != nil {
		return err
	}
	b.append(leaf)
	return nil
}

func (b *Batch) append(s core.Step) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.steps = append(b.steps, s)
}

// WorstCase is the sum of the children's worst cases, recomputed on each
// call.
func (b *Batch) WorstCase() time.Duration {
	var total time.Duration
	for _, s := range b.Steps() {
		total += s.WorstCase()
	}
	return total
}

// Execute runs the children in insertion order with at most one in flight.
// The first error stops the batch and is forwarded to done unchanged.
func (b *Batch) Execute(scope *core.Scope, done core.Done) {
	steps := b.Steps()
	if len(steps) == 0 {
		scope.Loop.Post(func() { done(nil) })
		return
	}

	tracer := otel.Tracer(tracerName)
	ctx := scope.Ctx()

	var run func(i int)
	run = func(i int) {
		child := steps[i]
		cctx, span := tracer.Start(ctx, child.Name(), trace.WithAttributes(
			attribute.String("batch", b.name),
			attribute.Int("index", i),
			attribute.Int64("worst_case_ms", child.WorstCase().Milliseconds()),
		))
		start := scope.Now()

		var once sync.Once
		child.Execute(scope.Nested(cctx), func(err error) {
			first := false
			once.Do(func() { first = true })
			if !first {
				log.Warn(ctx, "step completed more than once", log.Step(child.Name()), log.Err(err))
				return
			}
			elapsed := scope.Now().Sub(start)
			b.finish(scope, span, child, elapsed, err)
			if err != nil {
				done(err)
				return
			}
			if i+1 == len(steps) {
				done(nil)
				return
			}
			run(i + 1)
		})
	}
	run(0)
}

func (b *Batch) finish(scope *core.Scope, span trace.Span, child core.Step, elapsed time.Duration, err error) {
	ev := core.Event{
		Timestamp: scope.Now(),
		Step:      child.Name(),
		Depth:     scope.Depth,
		Duration:  elapsed,
		WorstCase: child.WorstCase(),
		Success:   err == nil,
	}
	if err != nil {
		ev.Error = core.Describe(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Debug(scope.Ctx(), "step failed", log.Step(child.Name()), log.Elapsed(elapsed), log.Err(err))
	} else {
		log.Debug(scope.Ctx(), "step completed", log.Step(child.Name()), log.Elapsed(elapsed))
	}
	span.End()
	scope.Report(ev)
}
