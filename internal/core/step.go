package core

import (
	"context"
	"sync"
	"time"

	"stepchain/internal/dom"
)

// Done receives the single completion signal of a step. A nil error means
// the step succeeded.
type Done func(err error)

// Step is a unit of asynchronous work with a static worst-case duration.
// Execute must call done exactly once, and never before returning control
// to the scheduler.
type Step interface {
	Execute(scope *Scope, done Done)
	WorstCase() time.Duration
	Name() string
}

// Scope is the execution scope handed uniformly to every step of a run.
type Scope struct {
	Context  context.Context
	Loop     Scheduler
	Document dom.Document
	Input    dom.Input
	Vars     Variables
	Reporter Reporter
	Pacer    Pacer
	Clock    Clock
	RunID    string
	Depth    int
}

// Ctx returns the scope context, never nil.
func (s *Scope) Ctx() context.Context {
	if s == nil || s.Context == nil {
		return context.Background()
	}
	return s.Context
}

// Now reads the scope clock, falling back to the wall clock.
func (s *Scope) Now() time.Time {
	if s == nil || s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

// Report forwards e to the scope reporter if one is attached.
func (s *Scope) Report(e Event) {
	if s == nil || s.Reporter == nil {
		return
	}
	e.RunID = s.RunID
	s.Reporter.Report(e)
}

// WithContext returns a shallow copy of the scope using ctx.
func (s *Scope) WithContext(ctx context.Context) *Scope {
	cp := *s
	cp.Context = ctx
	return &cp
}

// Nested returns a shallow copy one nesting level deeper.
func (s *Scope) Nested(ctx context.Context) *Scope {
	cp := s.WithContext(ctx)
	cp.Depth++
	return cp
}

// Variables provides shared state between steps in a scenario run.
type Variables interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MapVariables is a simple map-based Variables implementation.
// Safe for concurrent use.
type MapVariables struct {
	mu   sync.RWMutex
	data map[string]any
}

func NewVariables() *MapVariables {
	return &MapVariables{data: make(map[string]any)}
}

func (v *MapVariables) Get(key string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.data[key]
	return val, ok
}

func (v *MapVariables) Set(key string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data[key] = value
}
