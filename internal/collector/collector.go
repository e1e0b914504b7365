// Package collector records step events during a scenario run and renders
// a run report.
package collector

import (
	"sync"
	"time"

	"stepchain/internal/core"
)

// Collector gathers events from a running scenario. Report never blocks the
// scenario loop; events beyond the buffer are counted as dropped.
type Collector struct {
	events    []core.Event
	dropped   int
	ch        chan core.Event
	done      chan struct{}
	mu        sync.Mutex
	startTime time.Time
	endTime   time.Time
}

var _ core.Reporter = (*Collector)(nil)

// NewCollector creates a Collector and starts its collection goroutine.
func NewCollector() *Collector {
	c := &Collector{
		ch:        make(chan core.Event, 1024),
		done:      make(chan struct{}),
		startTime: time.Now(),
	}
	go c.collect()
	return c
}

func (c *Collector) collect() {
	for event := range c.ch {
		c.mu.Lock()
		c.events = append(c.events, event)
		c.mu.Unlock()
	}
	close(c.done)
}

// Report implements core.Reporter.
func (c *Collector) Report(event core.Event) {
	select {
	case c.ch <- event:
	default:
		c.mu.Lock()
		c.dropped++
		c.mu.Unlock()
	}
}

// Close stops collection and waits for buffered events to be recorded.
func (c *Collector) Close() {
	c.mu.Lock()
	c.endTime = time.Now()
	c.mu.Unlock()
	close(c.ch)
	<-c.done
}

// Events returns a copy of the collected events in completion order.
func (c *Collector) Events() []core.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Event, len(c.events))
	copy(out, c.events)
	return out
}

// Dropped returns how many events did not fit the buffer.
func (c *Collector) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Duration returns the time from creation to Close, or to now while open.
func (c *Collector) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.endTime.IsZero() {
		return c.endTime.Sub(c.startTime)
	}
	return time.Since(c.startTime)
}

// Summary computes the run summary from the collected events.
func (c *Collector) Summary() *Summary {
	s := Summarize(c.Events(), c.Duration())
	s.Dropped = c.Dropped()
	return s
}
