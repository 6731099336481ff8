// r in rserial stands for "robust"
package rserial

import (
	"fmt"
	"io"
	"os"

	"go.bug.st/serial"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// StdoutName is the port name reported when no serial console is configured.
const StdoutName = "stdout"

type rserial struct {
	port     io.WriteCloser
	logger   *zap.Logger
	portName string
}

type ShortWriteError struct {
	Written  int
	Expected int
}

func (e *ShortWriteError) Error() string {
	return fmt.Sprintf("[rserial] write made no progress after %d of %d bytes", e.Written, e.Expected)
}

type drainer interface {
	Drain() error
}

type stdoutPort struct {
	io.Writer
}

func (stdoutPort) Close() error { return nil }

// NewRSerial opens the console the reports go to: the named UART, or stdout
// when portName is empty.
func NewRSerial(portName string, baudrate int, logger *zap.Logger) (*rserial, error) {
	if portName == "" {
		return newRSerial(stdoutPort{os.Stdout}, StdoutName, logger), nil
	}

	mode := &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("error opening serial port %s: %w", portName, err)
	}

	if err := port.ResetOutputBuffer(); err != nil {
		logger.Warn("[rserial] could not reset output buffer", zap.Error(err), zap.String("portName", portName))
	}

	return newRSerial(port, portName, logger), nil
}

func newRSerial(port io.WriteCloser, portName string, logger *zap.Logger) *rserial {
	return &rserial{
		port:     port,
		logger:   logger,
		portName: portName,
	}
}

// Write keeps writing until all of p is out; a UART may accept it in pieces.
func (r *rserial) Write(p []byte) (int, error) {
	totalWritten := 0
	for totalWritten < len(p) {
		n, err := r.port.Write(p[totalWritten:])
		totalWritten += n
		if err != nil {
			return totalWritten, err
		}
		if n == 0 {
			return totalWritten, &ShortWriteError{Written: totalWritten, Expected: len(p)}
		}
	}

	return totalWritten, nil
}

// Close flushes pending output when the port supports it, then closes it.
func (r *rserial) Close() error {
	var err error
	if d, ok := r.port.(drainer); ok {
		err = multierr.Append(err, d.Drain())
	}
	err = multierr.Append(err, r.port.Close())

	if err != nil {
		r.logger.Warn("[rserial] error closing console", zap.Error(err), zap.String("portName", r.portName))
	} else {
		r.logger.Info("[rserial] console closed", zap.String("portName", r.portName))
	}
	return err
}

func (r *rserial) PortName() string {
	return r.portName
}
