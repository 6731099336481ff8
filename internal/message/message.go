// Package message defines the sample record exchanged between the producer
// and the consumer, and its packed 64-bit form used on the queue.
package message

// Message is a time-stamped raw sample.
type Message struct {
	Timestamp uint32 // tick count at publish time
	RawValue  uint32 // raw sample, millivolts
}

// New builds a Message from a tick count and a raw sample.
func New(tick uint32, raw uint32) Message {
	return Message{Timestamp: tick, RawValue: raw}
}

// Encode packs the timestamp into the high 32 bits and the raw value into the
// low 32 bits.
func (m Message) Encode() uint64 {
	return uint64(m.Timestamp)<<32 | uint64(m.RawValue)
}

// Decode is the exact inverse of Encode.
func Decode(word uint64) Message {
	return Message{
		Timestamp: uint32(word >> 32),
		RawValue:  uint32(word & 0xFFFFFFFF),
	}
}
