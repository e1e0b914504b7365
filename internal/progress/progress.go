// Package progress prints a live status line while a scenario runs.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"stepchain/internal/collector"
)

// Progress renders the collector state against the scenario budget once a
// tick until stopped.
type Progress struct {
	startTime time.Time
	collector *collector.Collector
	budget    time.Duration
	interval  time.Duration
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopped   atomic.Bool
	quiet     bool
	output    io.Writer
	mu        sync.Mutex
}

// NewProgress creates a printer for a run whose worst case is budget.
func NewProgress(c *collector.Collector, budget time.Duration, quiet bool) *Progress {
	return &Progress{
		collector: c,
		budget:    budget,
		interval:  time.Second,
		quiet:     quiet,
		output:    os.Stderr,
	}
}

func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = w
}

func (p *Progress) Start() {
	if p.quiet {
		return
	}
	p.startTime = time.Now()
	p.stopCh = make(chan struct{})
	p.ticker = time.NewTicker(p.interval)
	go p.run()
}

func (p *Progress) run() {
	for {
		select {
		case <-p.stopCh:
			return
		case <-p.ticker.C:
			p.printStatus()
		}
	}
}

func (p *Progress) printStatus() {
	s := p.collector.Summary()
	elapsed := time.Since(p.startTime)
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.output, "\033[K[%s] Steps: %d | Failed: %d | Budget: %s of %s\r",
		clock(elapsed), s.Passed+s.Failed, s.Failed,
		collector.FormatDuration(elapsed), collector.FormatDuration(p.budget))
}

func (p *Progress) Stop() {
	if p.quiet || p.stopped.Swap(true) {
		return
	}
	if p.ticker != nil {
		p.ticker.Stop()
	}
	if p.stopCh != nil {
		close(p.stopCh)
	}
	p.mu.Lock()
	fmt.Fprint(p.output, "\033[K")
	p.mu.Unlock()
}

func (p *Progress) Printf(format string, args ...any) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K"+format+"\n", args...)
	p.mu.Unlock()
}

func clock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
