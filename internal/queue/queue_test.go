package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		q, err := New(capacity)
		assert.ErrorIs(t, err, ErrInvalidCapacity)
		assert.Nil(t, q)
	}
}

func TestTrySend_FullQueueDoesNotBlockOrOverwrite(t *testing.T) {
	q, err := New(1)
	require.NoError(t, err)

	assert.True(t, q.TrySend(1))
	assert.False(t, q.TrySend(2))
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 1, q.Cap())

	word, err := q.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), word)
	assert.Equal(t, 0, q.Len())
}

func TestReceive_PreservesOrder(t *testing.T) {
	q, err := New(3)
	require.NoError(t, err)

	for _, w := range []uint64{10, 20, 30} {
		require.True(t, q.TrySend(w))
	}

	for _, want := range []uint64{10, 20, 30} {
		got, err := q.Receive(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestReceive_BlocksUntilPublished(t *testing.T) {
	q, err := New(1)
	require.NoError(t, err)

	got := make(chan uint64, 1)
	go func() {
		word, err := q.Receive(context.Background())
		if err == nil {
			got <- word
		}
	}()

	select {
	case <-got:
		t.Fatal("receive returned before publish")
	case <-time.After(20 * time.Millisecond):
	}

	require.True(t, q.TrySend(42))

	select {
	case word := <-got:
		assert.Equal(t, uint64(42), word)
	case <-time.After(time.Second):
		t.Fatal("receive did not wake on publish")
	}
}

func TestReceive_Cancelled(t *testing.T) {
	q, err := New(1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = q.Receive(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReceiveTimeout(t *testing.T) {
	q, err := New(1)
	require.NoError(t, err)

	_, err = q.ReceiveTimeout(context.Background(), 0)
	assert.ErrorIs(t, err, ErrTimeout)

	_, err = q.ReceiveTimeout(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)

	require.True(t, q.TrySend(7))
	word, err := q.ReceiveTimeout(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), word)
}
