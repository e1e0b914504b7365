package batch

import (
	"fmt"
	"time"

	"stepchain/internal/core"
	"stepchain/internal/dom"
	"stepchain/internal/log"
	"stepchain/internal/step"
)

// Condition is a WaitUntil predicate. A returned error or a panic aborts
// the wait with that error.
type Condition func(*core.Scope) (bool, error)

// Predicate adapts a plain boolean check into a Condition.
func Predicate(fn func() bool) Condition {
	if fn == nil {
		return nil
	}
	return func(*core.Scope) (bool, error) { return fn(), nil }
}

// WaitOpts overrides the batch defaults for a single wait. Zero fields
// fall back to the batch options.
type WaitOpts struct {
	Timeout time.Duration
	Poll    time.Duration
	// Message replaces the generic timeout message.
	Message string
}

// Wait appends a step that completes after d, or after the batch Timeout
// when d is omitted or zero.
func (b *Batch) Wait(d ...time.Duration) *Batch {
	return b.must(b.waitStep(d...))
}

// WaitUntil appends a step polling test every Poll until it holds.
func (b *Batch) WaitUntil(test Condition, opts ...WaitOpts) *Batch {
	return b.must(b.waitUntilStep(test, opts...))
}

// Debug appends a step that logs msg at info level.
func (b *Batch) Debug(msg string) *Batch {
	return b.must(b.debugStep(msg))
}

// WaitForElement appends a nested batch waiting until selector is present
// and visible.
func (b *Batch) WaitForElement(selector string, opts ...WaitOpts) *Batch {
	return b.must(b.waitForElementStep(selector, opts...))
}

// Click appends a nested batch that locates selector, dispatches
// mousedown, mouseup and click, then pauses for ShortWait.
func (b *Batch) Click(selector string) *Batch {
	return b.must(b.clickStep(selector))
}

// SetValue appends a nested batch that locates selector, focuses it,
// assigns value, dispatches key events, then pauses for ShortWait.
func (b *Batch) SetValue(selector, value string) *Batch {
	return b.must(b.setValueStep(selector, value))
}

// WaitAndClick appends WaitForElement followed by Click.
func (b *Batch) WaitAndClick(selector string, timeout ...time.Duration) *Batch {
	return b.must(b.waitAndClickStep(selector, timeout...))
}

func (b *Batch) must(s core.Step, err error) *Batch {
	if err != nil {
		panic(err)
	}
	b.append(s)
	return b
}

func (b *Batch) waitStep(d ...time.Duration) (core.Step, error) {
	if len(d) > 1 {
		return nil, core.Constructionf("wait takes at most one duration")
	}
	dur := b.opts.Timeout
	if len(d) == 1 {
		if d[0] < 0 {
			return nil, core.Constructionf("negative wait %s", d[0])
		}
		if d[0] > 0 {
			dur = d[0]
		}
	}
	return step.NewLeaf(fmt.Sprintf("wait %s", dur), step.Async(func(scope *core.Scope, done core.Done) {
		scope.Loop.After(dur, func() { done(nil) })
	}), dur)
}

func (b *Batch) waitUntilStep(test Condition, opts ...WaitOpts) (core.Step, error) {
	if test == nil {
		return nil, core.Constructionf("waitUntil requires a condition")
	}
	if len(opts) > 1 {
		return nil, core.Constructionf("waitUntil takes at most one WaitOpts")
	}
	var o WaitOpts
	if len(opts) == 1 {
		o = opts[0]
	}
	if o.Timeout < 0 || o.Poll < 0 {
		return nil, core.Constructionf("waitUntil durations must not be negative")
	}
	timeout, poll, shortWait := b.opts.Timeout, b.opts.Poll, b.opts.ShortWait
	if o.Timeout > 0 {
		timeout = o.Timeout
	}
	if o.Poll > 0 {
		poll = o.Poll
	}

	body := func(scope *core.Scope, done core.Done) {
		var elapsed time.Duration
		var tick func()
		tick = func() {
			if err := scope.Ctx().Err(); err != nil {
				done(err)
				return
			}
			ok, err := evaluate(scope, test)
			if err != nil {
				done(err)
				return
			}
			if ok {
				scope.Loop.After(shortWait, func() { done(nil) })
				return
			}
			// Elapsed time is counted in poll intervals, not measured.
			elapsed += poll
			if elapsed > timeout {
				done(core.NewTimeoutError(o.Message, timeout))
				return
			}
			scope.Loop.After(poll, tick)
		}
		scope.Loop.After(poll, tick)
	}
	return step.NewLeaf(fmt.Sprintf("waitUntil %s", timeout), step.Async(body), timeout)
}

func evaluate(scope *core.Scope, test Condition) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.PanicError(r)
		}
	}()
	return test(scope)
}

func (b *Batch) debugStep(msg string) (core.Step, error) {
	return step.NewLeaf("debug", step.Sync(func(scope *core.Scope) error {
		log.Info(scope.Ctx(), msg, log.Step("debug"))
		return nil
	}), 0)
}

func (b *Batch) waitForElementStep(selector string, opts ...WaitOpts) (core.Step, error) {
	if selector == "" {
		return nil, core.Constructionf("waitForElement requires a selector")
	}
	var o WaitOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Message == "" {
		o.Message = fmt.Sprintf("element %q did not become visible", selector)
	}
	nested := b.Nested(WithName("waitForElement " + selector))
	s, err := nested.waitUntilStep(func(scope *core.Scope) (bool, error) {
		if scope.Document == nil {
			return false, core.Errorf("no document attached to scope")
		}
		el, ok := scope.Document.Locate(selector)
		return ok && scope.Document.Visible(el), nil
	}, o)
	if err != nil {
		return nil, err
	}
	nested.append(s)
	return nested, nil
}

func (b *Batch) clickStep(selector string) (core.Step, error) {
	if selector == "" {
		return nil, core.Constructionf("click requires a selector")
	}
	nested := b.Nested(WithName("click " + selector))
	leaf, err := step.NewLeaf("dispatch click "+selector, step.Async(func(scope *core.Scope, done core.Done) {
		el, in, err := locate(scope, selector)
		if err != nil {
			done(err)
			return
		}
		paced(scope, func() {
			for _, ev := range []string{dom.EventMouseDown, dom.EventMouseUp, dom.EventClick} {
				BestEffort(scope.Ctx(), ev, func() error { return in.Simulate(el, ev, nil) })
			}
			done(nil)
		})
	}), 0)
	if err != nil {
		return nil, err
	}
	pause, err := nested.waitStep(nested.opts.ShortWait)
	if err != nil {
		return nil, err
	}
	nested.append(leaf)
	nested.append(pause)
	return nested, nil
}

func (b *Batch) setValueStep(selector, value string) (core.Step, error) {
	if selector == "" {
		return nil, core.Constructionf("setValue requires a selector")
	}
	nested := b.Nested(WithName("setValue " + selector))
	leaf, err := step.NewLeaf("assign "+selector, step.Async(func(scope *core.Scope, done core.Done) {
		el, in, err := locate(scope, selector)
		if err != nil {
			done(err)
			return
		}
		paced(scope, func() {
			BestEffort(scope.Ctx(), "focus", func() error { return in.Focus(el) })
			if err := in.SetValue(el, value); err != nil {
				done(core.Errorf("set value of %q: %w", selector, err))
				return
			}
			keyOpts := map[string]any{"value": value}
			for _, ev := range []string{dom.EventKeyDown, dom.EventKeyUp, dom.EventKeyPress} {
				BestEffort(scope.Ctx(), ev, func() error { return in.Simulate(el, ev, keyOpts) })
			}
			done(nil)
		})
	}), 0)
	if err != nil {
		return nil, err
	}
	pause, err := nested.waitStep(nested.opts.ShortWait)
	if err != nil {
		return nil, err
	}
	nested.append(leaf)
	nested.append(pause)
	return nested, nil
}

func (b *Batch) waitAndClickStep(selector string, timeout ...time.Duration) (core.Step, error) {
	if len(timeout) > 1 {
		return nil, core.Constructionf("waitAndClick takes at most one timeout")
	}
	var o WaitOpts
	if len(timeout) == 1 {
		if timeout[0] < 0 {
			return nil, core.Constructionf("negative timeout %s", timeout[0])
		}
		o.Timeout = timeout[0]
	}
	nested := b.Nested(WithName("waitAndClick " + selector))
	wait, err := nested.waitForElementStep(selector, o)
	if err != nil {
		return nil, err
	}
	click, err := nested.clickStep(selector)
	if err != nil {
		return nil, err
	}
	nested.append(wait)
	nested.append(click)
	return nested, nil
}

// locate resolves selector against the scope document. A missing element
// fails before any input is simulated.
func locate(scope *core.Scope, selector string) (dom.Element, dom.Input, error) {
	if scope.Document == nil || scope.Input == nil {
		return nil, nil, core.Errorf("no document attached to scope")
	}
	el, ok := scope.Document.Locate(selector)
	if !ok {
		return nil, nil, core.Errorf("element %q not found", selector)
	}
	return el, scope.Input, nil
}

// paced runs fn once the scope pacer grants the next input slot. The delay
// is not counted in WorstCase; the harness grace absorbs it.
func paced(scope *core.Scope, fn func()) {
	var delay time.Duration
	if scope.Pacer != nil {
		delay = scope.Pacer.Delay()
	}
	scope.Loop.After(delay, fn)
}
