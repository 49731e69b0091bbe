package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Pacer enforces a pause between consecutive upstream requests.
type Pacer interface {
	Pause(ctx context.Context) error
}

// Delay pauses for a fixed interval, optionally spread by jitter.
// It is safe for concurrent use by multiple goroutines.
type Delay struct {
	interval time.Duration
	jitter   float64 // 0.0 to 1.0
}

// NewDelay creates a pacer that sleeps interval on every Pause. Jitter is
// clamped to [0, 1] and widens each pause by up to +/- jitter*interval.
// If interval is <= 0, Pause does not block.
func NewDelay(interval time.Duration, jitter float64) *Delay {
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}
	return &Delay{
		interval: interval,
		jitter:   jitter,
	}
}

// Interval reports the configured base interval.
func (d *Delay) Interval() time.Duration { return d.interval }

// Pause blocks for the next interval or until the context is canceled.
func (d *Delay) Pause(ctx context.Context) error {
	wait := d.next()
	if wait <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(wait)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (d *Delay) next() time.Duration {
	if d.interval <= 0 {
		return 0
	}
	if d.jitter == 0 {
		return d.interval
	}
	// -1.0 to 1.0
	factor := (rand.Float64() * 2) - 1.0
	return d.interval + time.Duration(float64(d.interval)*d.jitter*factor)
}

// Noop never blocks. Useful in tests and for unthrottled endpoints.
type Noop struct{}

func (Noop) Pause(ctx context.Context) error { return ctx.Err() }

// Counter wraps a Pacer and counts Pause calls.
type Counter struct {
	Pacer Pacer
	Calls int
}

func (c *Counter) Pause(ctx context.Context) error {
	c.Calls++
	if c.Pacer == nil {
		return ctx.Err()
	}
	return c.Pacer.Pause(ctx)
}
