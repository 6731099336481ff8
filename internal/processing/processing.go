package processing

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"sleepywoodpecker/rtos-sampler/internal/config"
	"sleepywoodpecker/rtos-sampler/internal/message"
)

// ReportFormat renders one report line: tick first, milli-degrees second.
const ReportFormat = "Tick %d:\t%d E-3 Celsius\n"

// Receiver blocks until the next packed message arrives.
type Receiver interface {
	Receive(ctx context.Context) (uint64, error)
}

// Sleeper suspends the calling task for a number of ticks.
type Sleeper interface {
	Delay(ctx context.Context, ticks uint32) error
}

// Converter maps raw millivolts onto milli-degrees Celsius.
type Converter struct {
	rawLow   int64
	rawRange float64
	physLow  int64
	physSpan float64
}

func NewConverter(b config.BoundsConfig) Converter {
	return Converter{
		rawLow:   b.RawLow,
		rawRange: float64(b.RawHigh - b.RawLow),
		physLow:  b.PhysLow,
		physSpan: float64(b.PhysHigh - b.PhysLow),
	}
}

// ToPhysical applies the affine mapping in floating point and truncates the
// result toward zero.
func (c Converter) ToPhysical(raw int64) int64 {
	// explicit conversion keeps the multiply-add from being fused
	scaled := float64(float64(raw-c.rawLow) / c.rawRange * c.physSpan)
	return int64(scaled + float64(c.physLow))
}

// Processor is the consumer task: wait, decode, convert, report, throttle.
type Processor struct {
	MessageQueue Receiver
	outStream    io.Writer
	logger       *zap.Logger
	dataStore    *DataSampleStore
	converter    Converter
	sleeper      Sleeper
	throttle     uint32

	rxEvents atomic.Uint64
}

func NewProcessor(messageQueue Receiver, outStream io.Writer, bounds config.BoundsConfig, sleeper Sleeper, throttle uint32, logger *zap.Logger, dataStore *DataSampleStore) *Processor {
	return &Processor{
		MessageQueue: messageQueue,
		outStream:    outStream,
		logger:       logger,
		dataStore:    dataStore,
		converter:    NewConverter(bounds),
		sleeper:      sleeper,
		throttle:     throttle,
	}
}

// Run loops until ctx is done. The wait on the queue has no timeout.
func (p *Processor) Run(ctx context.Context) error {
	for {
		word, err := p.MessageQueue.Receive(ctx)
		if err != nil {
			p.logger.Info("[processor] received shutdown signal")
			return err
		}

		if err := p.ProcessMessage(word, p.outStream); err != nil {
			p.logger.Warn("[processor] error writing report", zap.Error(err), zap.Uint64("word", word))
		}

		// the throttle is independent of the producer period
		if err := p.sleeper.Delay(ctx, p.throttle); err != nil {
			p.logger.Info("[processor] received shutdown signal")
			return err
		}

		p.rxEvents.Add(1)
	}
}

// ProcessMessage decodes one packed message, converts the sample and writes
// the report line to outStream.
func (p *Processor) ProcessMessage(word uint64, outStream io.Writer) error {
	msg := message.Decode(word)

	// sign-extend so a transient overshoot below zero converts correctly
	raw := int64(int32(msg.RawValue))
	physical := p.converter.ToPhysical(raw)

	p.dataStore.UpdateSampleStore(msg.Timestamp, raw, physical)

	_, err := fmt.Fprintf(outStream, ReportFormat, msg.Timestamp, physical)
	return err
}

// RxEvents is the number of samples fully processed so far.
func (p *Processor) RxEvents() uint64 {
	return p.rxEvents.Load()
}
