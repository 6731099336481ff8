package processing

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Counters exposes the advisory diagnostic counts of the two tasks.
type Counters struct {
	RxEvents  func() uint64
	Published func() uint64
	Dropped   func() uint64
}

type monitor struct {
	interval time.Duration
	counters Counters
	store    *DataSampleStore
	logger   *zap.Logger
}

func NewMonitor(interval time.Duration, counters Counters, store *DataSampleStore, logger *zap.Logger) *monitor {
	return &monitor{
		interval: interval,
		counters: counters,
		store:    store,
		logger:   logger,
	}
}

// SampleAndLog logs one snapshot of the counters and the latest reading.
func (m *monitor) SampleAndLog() {
	fields := []zap.Field{
		zap.Uint64("rxEvents", load(m.counters.RxEvents)),
		zap.Uint64("published", load(m.counters.Published)),
		zap.Uint64("dropped", load(m.counters.Dropped)),
	}

	if reading := m.store.GetReadingFromSampleStore(); reading.Valid {
		fields = append(fields,
			zap.Uint32("lastTick", reading.Tick),
			zap.Int64("lastRawValue", reading.RawValue),
			zap.Int64("lastMilliCelsius", reading.MilliCelsius),
		)
	}

	m.logger.Info("[monitor] pipeline stats", fields...)
}

// Run logs a snapshot every interval until ctx is done. A non-positive
// interval returns immediately.
func (m *monitor) Run(ctx context.Context) error {
	if m.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.SampleAndLog()
		case <-ctx.Done():
			m.SampleAndLog()
			return ctx.Err()
		}
	}
}

func load(counter func() uint64) uint64 {
	if counter == nil {
		return 0
	}
	return counter()
}
