// Package pacing enforces a minimum interval between calls to an upstream
// API. The free-tier market-data endpoints throttle aggressively, so every
// outbound request path shares a Pacer and records each physical request.
package pacing

import (
	"context"
	"sync"
	"time"
)

// Pacer tracks the timestamp of the last outbound request and answers
// whether the configured minimum interval has elapsed. Thread-safe.
type Pacer struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
}

// NewPacer creates a pacer with the given minimum inter-request interval.
// The first request is always allowed immediately.
func NewPacer(minInterval time.Duration) *Pacer {
	return &Pacer{minInterval: minInterval}
}

// Elapsed reports whether the minimum interval since the last recorded
// request has passed.
func (p *Pacer) Elapsed() bool {
	return p.Remaining() == 0
}

// Remaining returns how long the caller still has to wait before the next
// request is allowed, or zero if it may proceed now.
func (p *Pacer) Remaining() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastRequest.IsZero() {
		return 0
	}
	remaining := p.minInterval - time.Since(p.lastRequest)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Record marks now as the time of the most recent outbound request.
// Call it once per physical network request, not per logical operation.
func (p *Pacer) Record() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastRequest = time.Now()
}

// Wait blocks until the minimum interval has elapsed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	remaining := p.Remaining()
	if remaining == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(remaining):
		return nil
	}
}
