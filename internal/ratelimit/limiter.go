// Package ratelimit paces simulated input events.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"stepchain/internal/core"
)

// Pacer spaces input events to at most a configured number per second. It
// never blocks: Delay reserves the next slot and the caller schedules its
// work after the returned duration on the scenario loop.
type Pacer struct {
	mu      sync.RWMutex
	limiter *rate.Limiter
}

var _ core.Pacer = (*Pacer)(nil)

// NewPacer allows eps events per second with no burst. A rate of zero or
// less disables pacing.
func NewPacer(eps float64) *Pacer {
	return &Pacer{limiter: rate.NewLimiter(limit(eps), 1)}
}

// Delay reserves the next event slot and returns how long to wait for it.
func (p *Pacer) Delay() time.Duration {
	if p == nil {
		return 0
	}
	p.mu.RLock()
	limiter := p.limiter
	p.mu.RUnlock()

	if limiter.Limit() == rate.Inf {
		return 0
	}
	return limiter.Reserve().Delay()
}

// SetRate changes the pace for subsequent events.
func (p *Pacer) SetRate(eps float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.limiter.SetLimit(limit(eps))
}

// Rate returns the current events per second, zero when unpaced.
func (p *Pacer) Rate() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if l := p.limiter.Limit(); l != rate.Inf {
		return float64(l)
	}
	return 0
}

func limit(eps float64) rate.Limit {
	if eps <= 0 {
		return rate.Inf
	}
	return rate.Limit(eps)
}
