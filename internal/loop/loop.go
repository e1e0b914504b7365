// Package loop provides the single-goroutine cooperative scheduler that
// every step body, completion callback and timer of a scenario runs on.
package loop

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chainguard-dev/clog"

	"stepchain/internal/core"
)

// Loop dispatches queued callbacks one at a time, in FIFO order, on the
// goroutine that called Run. Post and After are safe from any goroutine.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stop    chan struct{}
	stopped atomic.Bool
	running atomic.Bool
}

var _ core.Scheduler = (*Loop)(nil)

// New creates an idle loop.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
}

// Post queues fn for the next tick. It never runs fn inline.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// After queues fn once d has elapsed. A non-positive d behaves like Post.
func (l *Loop) After(d time.Duration, fn func()) core.Timer {
	t := &Timer{}
	run := func() {
		if t.stopped.Load() {
			return
		}
		t.fired.Store(true)
		fn()
	}
	if d <= 0 {
		l.Post(run)
		return t
	}
	t.timer = time.AfterFunc(d, func() { l.Post(run) })
	return t
}

// Run dispatches callbacks until ctx is done or Stop is called. It returns
// ctx.Err() when the context ends the loop and nil after Stop.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		panic("loop: Run called twice")
	}
	defer l.running.Store(false)

	for {
		if fn, ok := l.next(); ok {
			l.dispatch(ctx, fn)
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return nil
		case <-l.wake:
		}
	}
}

// Start runs the loop on a new goroutine and returns a function that stops
// it and waits for the goroutine to exit.
func (l *Loop) Start(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Run(ctx)
	}()
	return func() {
		l.Stop()
		<-done
	}
}

// Stop ends Run after the callback in progress returns. Queued callbacks
// are discarded and a stopped loop cannot be restarted.
func (l *Loop) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		close(l.stop)
	}
}

// Pending returns the number of queued callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) next() (func(), bool) {
	if l.stopped.Load() {
		return nil, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

// dispatch runs fn, logging and discarding any panic.
func (l *Loop) dispatch(ctx context.Context, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			clog.FromContext(ctx).ErrorContext(ctx, "loop callback panicked",
				slog.Any("panic", r))
		}
	}()
	fn()
}

// Timer is a cancellable callback scheduled with After.
type Timer struct {
	timer   *time.Timer
	stopped atomic.Bool
	fired   atomic.Bool
}

// Stop cancels the timer. It reports whether the call prevented the
// callback from running.
func (t *Timer) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	return !t.fired.Load()
}
