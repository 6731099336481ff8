package processing

import (
	"sync"
)

// Reading is the last sample the consumer reported.
type Reading struct {
	Tick         uint32
	RawValue     int64
	MilliCelsius int64
	Valid        bool
}

// DataSampleStore lets the monitor read the latest report without touching
// the consumer's loop.
type DataSampleStore struct {
	reading         Reading
	rawReadingMutex sync.Mutex
}

func NewDataSampleStore() *DataSampleStore {
	return &DataSampleStore{}
}

func (d *DataSampleStore) UpdateSampleStore(tick uint32, raw int64, milliCelsius int64) {
	d.rawReadingMutex.Lock()
	defer d.rawReadingMutex.Unlock()

	d.reading = Reading{Tick: tick, RawValue: raw, MilliCelsius: milliCelsius, Valid: true}
}

func (d *DataSampleStore) GetReadingFromSampleStore() Reading {
	d.rawReadingMutex.Lock()
	defer d.rawReadingMutex.Unlock()

	return d.reading
}
