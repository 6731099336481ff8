package rserial

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// chunkedPort accepts at most chunk bytes per Write, like a slow UART.
type chunkedPort struct {
	buf      bytes.Buffer
	chunk    int
	drained  bool
	drainErr error
	closeErr error
}

func (c *chunkedPort) Write(p []byte) (int, error) {
	if len(p) > c.chunk {
		p = p[:c.chunk]
	}
	return c.buf.Write(p)
}

func (c *chunkedPort) Drain() error {
	c.drained = true
	return c.drainErr
}

func (c *chunkedPort) Close() error { return c.closeErr }

type failingPort struct {
	err error
}

func (f failingPort) Write(p []byte) (int, error) { return 0, f.err }
func (f failingPort) Close() error                { return nil }

func TestWrite_CompletesChunkedWrites(t *testing.T) {
	port := &chunkedPort{chunk: 3}
	r := newRSerial(port, "/dev/ttyAMA0", zap.NewNop())

	line := []byte("Tick 7:\t30000 E-3 Celsius\n")
	n, err := r.Write(line)
	require.NoError(t, err)
	assert.Equal(t, len(line), n)
	assert.Equal(t, line, port.buf.Bytes())
}

func TestWrite_NoProgress(t *testing.T) {
	r := newRSerial(&chunkedPort{chunk: 0}, "/dev/ttyAMA0", zap.NewNop())

	n, err := r.Write([]byte("abc"))
	assert.Equal(t, 0, n)

	var shortErr *ShortWriteError
	require.True(t, errors.As(err, &shortErr))
	assert.Equal(t, 3, shortErr.Expected)
}

func TestWrite_PortError(t *testing.T) {
	boom := errors.New("port unplugged")
	r := newRSerial(failingPort{err: boom}, "/dev/ttyAMA0", zap.NewNop())

	_, err := r.Write([]byte("abc"))
	assert.ErrorIs(t, err, boom)
}

func TestClose_DrainsAndCombinesErrors(t *testing.T) {
	drainErr := errors.New("drain failed")
	closeErr := errors.New("close failed")
	port := &chunkedPort{chunk: 1, drainErr: drainErr, closeErr: closeErr}
	r := newRSerial(port, "/dev/ttyAMA0", zap.NewNop())

	err := r.Close()
	assert.True(t, port.drained)
	assert.ErrorIs(t, err, drainErr)
	assert.ErrorIs(t, err, closeErr)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestNewRSerial_Stdout(t *testing.T) {
	r, err := NewRSerial("", 115200, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, StdoutName, r.PortName())
	assert.NoError(t, r.Close())
}

func TestNewRSerial_MissingPort(t *testing.T) {
	_, err := NewRSerial("/dev/does-not-exist-rtos-sampler", 115200, zap.NewNop())
	assert.Error(t, err)
}
