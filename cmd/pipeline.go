package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"sleepywoodpecker/rtos-sampler/internal/config"
	"sleepywoodpecker/rtos-sampler/internal/processing"
	"sleepywoodpecker/rtos-sampler/internal/queue"
	rserial "sleepywoodpecker/rtos-sampler/internal/rSerial"
	"sleepywoodpecker/rtos-sampler/internal/rtos"
	"sleepywoodpecker/rtos-sampler/internal/waveform"
)

const MONITOR_TASK_PRIORITY = 0

type pipeline struct {
	console     io.WriteCloser
	consoleName string
	scheduler   *rtos.Scheduler
}

// newPipeline creates every resource and spawns every task without starting
// any of them. On failure whatever was already opened is closed again.
func newPipeline(cfg *config.Config, logger *zap.Logger) (*pipeline, error) {
	sampleQueue, err := queue.New(cfg.Queue.Length)
	if err != nil {
		return nil, fmt.Errorf("could not create sample queue: %w", err)
	}

	console, err := rserial.NewRSerial(cfg.Console.Port, cfg.Console.BaudRate, logger)
	if err != nil {
		return nil, fmt.Errorf("could not open report console: %w", err)
	}

	clock := rtos.NewClock(cfg.Timing.Tick)
	sampleStore := processing.NewDataSampleStore()

	generator := waveform.NewGenerator(cfg.Bounds, cfg.Timing.Period, clock, sampleQueue, logger)
	processor := processing.NewProcessor(sampleQueue, console, cfg.Bounds, clock, cfg.Timing.ConsumerThrottle, logger, sampleStore)
	monitor := processing.NewMonitor(cfg.Monitor.Interval, processing.Counters{
		RxEvents:  processor.RxEvents,
		Published: generator.Published,
		Dropped:   generator.Dropped,
	}, sampleStore, logger)

	scheduler := rtos.NewScheduler(logger)
	spawns := []struct {
		name     string
		priority int
		task     rtos.Task
	}{
		{"Rx", cfg.Tasks.ConsumerPriority, processor.Run},
		{"TX", cfg.Tasks.ProducerPriority, generator.Run},
		{"monitor", MONITOR_TASK_PRIORITY, monitor.Run},
	}
	for _, s := range spawns {
		if err := scheduler.Spawn(s.name, s.priority, s.task); err != nil {
			return nil, multierr.Append(fmt.Errorf("could not spawn task: %w", err), console.Close())
		}
	}

	return &pipeline{
		console:     console,
		consoleName: console.PortName(),
		scheduler:   scheduler,
	}, nil
}

// run builds the pipeline and blocks until every task has stopped. A startup
// failure is returned before any task runs.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) (err error) {
	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, p.console.Close())
	}()

	logger.Info("starting scheduler",
		zap.String("console", p.consoleName),
		zap.Duration("tick", cfg.Timing.Tick),
		zap.Uint32("periodTicks", cfg.Timing.Period),
		zap.Uint32("throttleTicks", cfg.Timing.ConsumerThrottle),
	)

	return p.scheduler.Start(ctx)
}
