// Package waveform synthesizes a triangular raw signal that bounces between
// the configured raw bounds and publishes one time-stamped sample per period.
package waveform

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"sleepywoodpecker/rtos-sampler/internal/config"
	"sleepywoodpecker/rtos-sampler/internal/message"
	"sleepywoodpecker/rtos-sampler/internal/rtos"
)

// State is the generator's current sample and signed step ("gradient").
type State struct {
	Value int64
	Step  int64
}

// Next applies one reflection update and returns the new state. The upper
// bound flips the step whatever its sign; the lower bound only flips a
// descending step. The result may overshoot a bound by at most one step.
func (s State) Next(low, high int64) State {
	step := s.Step
	if s.Value >= high {
		step = -step
	} else if step < 0 && s.Value <= low {
		step = -step
	}
	return State{Value: s.Value + step, Step: step}
}

// Publisher accepts packed messages without blocking.
type Publisher interface {
	TrySend(word uint64) bool
}

// Timer wakes the generator periodically and stamps its samples.
type Timer interface {
	rtos.TickSource
	DelayUntil(ctx context.Context, nextWake *uint32, period uint32) error
}

// Generator is the producer task. Its State is never shared.
type Generator struct {
	bounds config.BoundsConfig
	period uint32
	timer  Timer
	out    Publisher
	logger *zap.Logger

	state State

	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewGenerator starts the waveform at the lower bound, ascending.
func NewGenerator(bounds config.BoundsConfig, period uint32, timer Timer, out Publisher, logger *zap.Logger) *Generator {
	return &Generator{
		bounds: bounds,
		period: period,
		timer:  timer,
		out:    out,
		logger: logger,
		state:  State{Value: bounds.RawLow, Step: bounds.StepMagnitude},
	}
}

// Run waits one period, then publishes one sample, forever. It only returns
// when ctx is done.
func (g *Generator) Run(ctx context.Context) error {
	nextWake := g.timer.TickCount()
	g.logger.Info("[producer] started",
		zap.Int64("rawValue", g.state.Value),
		zap.Int64("step", g.state.Step),
		zap.Uint32("periodTicks", g.period),
	)

	for {
		if err := g.timer.DelayUntil(ctx, &nextWake, g.period); err != nil {
			g.logger.Info("[producer] received shutdown signal")
			return err
		}
		g.Cycle()
	}
}

// Cycle advances the waveform once and makes a single publish attempt.
// A full queue drops the sample; it reports whether the sample went out.
func (g *Generator) Cycle() bool {
	g.state = g.state.Next(g.bounds.RawLow, g.bounds.RawHigh)

	// a transient overshoot below zero travels as its 32-bit two's complement
	msg := message.New(g.timer.TickCount(), uint32(g.state.Value))

	if !g.out.TrySend(msg.Encode()) {
		g.dropped.Add(1)
		g.logger.Debug("[producer] queue full, sample dropped",
			zap.Uint32("tick", msg.Timestamp),
			zap.Int64("rawValue", g.state.Value),
		)
		return false
	}

	g.published.Add(1)
	return true
}

// Published is the number of samples accepted by the queue.
func (g *Generator) Published() uint64 {
	return g.published.Load()
}

// Dropped is the number of samples lost to a full queue.
func (g *Generator) Dropped() uint64 {
	return g.dropped.Load()
}
