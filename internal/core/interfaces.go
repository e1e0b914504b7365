// Package core defines the fundamental interfaces and types for stepchain.
package core

import "time"

// Event represents the outcome of a single step inside a scenario run.
type Event struct {
	RunID     string
	Timestamp time.Time
	Step      string
	Depth     int           // nesting level, 0 for top-level steps
	Duration  time.Duration // measured, not the declared worst case
	WorstCase time.Duration
	Success   bool
	Error     string
}

// Reporter receives an Event each time a batch child completes.
type Reporter interface {
	Report(Event)
}

// NullReporter discards all events.
var NullReporter Reporter = nullReporter{}

type nullReporter struct{}

func (nullReporter) Report(Event) {}

// Timer is a scheduled callback that can be cancelled before it fires.
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks on the single scenario goroutine. Post queues fn
// for the next tick; After queues fn once d has elapsed.
type Scheduler interface {
	Post(fn func())
	After(d time.Duration, fn func()) Timer
}

// Pacer spaces simulated input events. Delay reserves the next slot and
// returns how long the caller must wait before using it.
type Pacer interface {
	Delay() time.Duration
}
