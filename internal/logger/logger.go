package logger

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a JSON logger that always writes to stderr and, when
// logFilePath is non-empty, also appends to that file. The returned close
// function flushes the logger and releases the file.
func NewLogger(logFilePath string, level string) (*zap.Logger, func() error, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), lvl),
	}

	var file *os.File
	if logFilePath != "" {
		file, err = os.OpenFile(logFilePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(file), lvl))
	}

	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller())

	closeFn := func() error {
		// stderr cannot be fsynced on most terminals; only the file matters
		_ = log.Sync()
		if file == nil {
			return nil
		}
		return multierr.Append(file.Sync(), file.Close())
	}

	return log, closeFn, nil
}
