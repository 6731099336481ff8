// Package queue is a fixed-capacity FIFO of 64-bit words shared between two
// tasks.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCapacity = errors.New("queue capacity must be at least 1")
	ErrTimeout         = errors.New("queue receive timed out")
)

// Queue hands 64-bit words from one task to another in publish order.
type Queue struct {
	items chan uint64
}

func New(capacity int) (*Queue, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	return &Queue{items: make(chan uint64, capacity)}, nil
}

// TrySend publishes without waiting. It reports false, leaving the queue
// untouched, when every slot is occupied.
func (q *Queue) TrySend(word uint64) bool {
	select {
	case q.items <- word:
		return true
	default:
		return false
	}
}

// Receive blocks until a word is available or ctx is done.
func (q *Queue) Receive(ctx context.Context) (uint64, error) {
	select {
	case word := <-q.items:
		return word, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// ReceiveTimeout blocks for at most timeout. A zero timeout polls.
func (q *Queue) ReceiveTimeout(ctx context.Context, timeout time.Duration) (uint64, error) {
	select {
	case word := <-q.items:
		return word, nil
	default:
	}
	if timeout <= 0 {
		return 0, ErrTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case word := <-q.items:
		return word, nil
	case <-timer.C:
		return 0, ErrTimeout
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Len is the number of words waiting.
func (q *Queue) Len() int {
	return len(q.items)
}

// Cap is the fixed capacity.
func (q *Queue) Cap() int {
	return cap(q.items)
}
