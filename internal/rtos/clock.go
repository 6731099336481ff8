// Package rtos provides the scheduling primitives the sampling tasks run on:
// a monotonic tick counter, periodic and relative delays, and a prioritized
// task group.
package rtos

import (
	"context"
	"time"
)

// TickSource reads the monotonic tick counter.
type TickSource interface {
	TickCount() uint32
}

// Clock is a monotonic tick counter advancing once per tick duration from
// the moment it was created. The 32-bit count wraps like a hardware counter.
type Clock struct {
	start time.Time
	tick  time.Duration
}

var _ TickSource = (*Clock)(nil)

// NewClock starts a tick counter at zero.
func NewClock(tick time.Duration) *Clock {
	if tick <= 0 {
		tick = time.Millisecond
	}
	return &Clock{start: time.Now(), tick: tick}
}

// TickDuration returns the length of one tick.
func (c *Clock) TickDuration() time.Duration {
	return c.tick
}

// TickCount returns the ticks elapsed since the clock was created.
func (c *Clock) TickCount() uint32 {
	return uint32(c.elapsed())
}

func (c *Clock) elapsed() uint64 {
	return uint64(time.Since(c.start) / c.tick)
}

// DelayUntil blocks until tick *nextWake+period is reached, then stores that
// tick back into *nextWake. Measuring from the previous due time rather than
// from now keeps a periodic loop free of drift. If the due tick has already
// passed, it returns without sleeping.
func (c *Clock) DelayUntil(ctx context.Context, nextWake *uint32, period uint32) error {
	due := *nextWake + period
	*nextWake = due

	now := c.elapsed()
	// signed distance survives counter wrap
	ahead := int64(int32(due - uint32(now)))
	if ahead <= 0 {
		return ctx.Err()
	}

	deadline := c.start.Add(time.Duration(now+uint64(ahead)) * c.tick)
	return sleep(ctx, time.Until(deadline))
}

// Delay blocks for the given number of ticks.
func (c *Clock) Delay(ctx context.Context, ticks uint32) error {
	return sleep(ctx, time.Duration(ticks)*c.tick)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
