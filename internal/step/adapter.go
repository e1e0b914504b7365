// Package step converts plain functions into asynchronous step bodies and
// wraps them in leaf steps with a declared worst-case duration.
package step

import (
	"sync"
	"sync/atomic"

	"stepchain/internal/core"
	"stepchain/internal/log"
)

type kind uint8

const (
	kindInvalid kind = iota
	kindSync
	kindAsync
)

// Func is a normalized step body. Its zero value is invalid.
type Func struct {
	kind  kind
	sync  func(*core.Scope) error
	async func(*core.Scope, core.Done)
}

// Sync wraps a synchronous body. It runs in place; its returned error or
// recovered panic is delivered to done on the next tick.
func Sync(fn func(*core.Scope) error) Func {
	if fn == nil {
		return Func{}
	}
	return Func{kind: kindSync, sync: fn}
}

// Async wraps a body that signals completion itself by calling done exactly
// once. Completion must happen on the scenario loop: either inside fn or
// from a callback scheduled through scope.Loop. A completion issued before
// fn returns is delivered on the next tick; a later one is forwarded
// immediately.
func Async(fn func(*core.Scope, core.Done)) Func {
	if fn == nil {
		return Func{}
	}
	return Func{kind: kindAsync, async: fn}
}

// Valid reports whether f wraps a body.
func (f Func) Valid() bool {
	return f.kind != kindInvalid
}

// IsAsync reports whether f signals its own completion.
func (f Func) IsAsync() bool {
	return f.kind == kindAsync
}

// Adapt converts v into a Func. Zero-input shapes are synchronous and
// shapes taking a completion function are asynchronous; either may take
// the scope first:
//
//	func()                          func(core.Done)
//	func() error                    func(func(error))
//	func(*core.Scope) error         func(*core.Scope, core.Done)
//
// Anything else, including nil functions, is a ConstructionError.
func Adapt(v any) (Func, error) {
	var f Func
	switch fn := v.(type) {
	case Func:
		f = fn
	case func():
		if fn != nil {
			f = Sync(func(*core.Scope) error { fn(); return nil })
		}
	case func() error:
		if fn != nil {
			f = Sync(func(*core.Scope) error { return fn() })
		}
	case func(*core.Scope) error:
		f = Sync(fn)
	case core.Done:
		return Func{}, core.Constructionf("a completion callback is not a step body")
	case func(core.Done):
		if fn != nil {
			f = Async(func(_ *core.Scope, done core.Done) { fn(done) })
		}
	case func(func(error)):
		if fn != nil {
			f = Async(func(_ *core.Scope, done core.Done) { fn(done) })
		}
	case func(*core.Scope, core.Done):
		f = Async(fn)
	case nil:
		return Func{}, core.Constructionf("step body is nil")
	default:
		return Func{}, core.Constructionf("unsupported step body %T: want a function taking nothing or a single completion callback", v)
	}
	if !f.Valid() {
		return Func{}, core.Constructionf("step body %T is nil", v)
	}
	return f, nil
}

// Run executes the body with scope and always delivers the result to done
// asynchronously.
func (f Func) Run(scope *core.Scope, done core.Done) {
	switch f.kind {
	case kindSync:
		err := protect(func() error { return f.sync(scope) })
		scope.Loop.Post(func() { done(err) })
	case kindAsync:
		f.runAsync(scope, done)
	default:
		err := core.Constructionf("step body is not set")
		scope.Loop.Post(func() { done(err) })
	}
}

func (f Func) runAsync(scope *core.Scope, done core.Done) {
	var (
		once     sync.Once
		returned atomic.Bool
	)
	complete := func(err error) {
		first := false
		once.Do(func() { first = true })
		if !first {
			log.Warn(scope.Ctx(), "step completion called more than once", log.Err(err))
			return
		}
		if !returned.Load() {
			scope.Loop.Post(func() { done(err) })
			return
		}
		done(err)
	}

	defer returned.Store(true)
	defer func() {
		if r := recover(); r != nil {
			complete(core.PanicError(r))
		}
	}()
	f.async(scope, complete)
}

func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.PanicError(r)
		}
	}()
	return fn()
}
