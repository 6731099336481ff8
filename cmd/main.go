package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"sleepywoodpecker/rtos-sampler/internal/config"
	"sleepywoodpecker/rtos-sampler/internal/logger"
)

const DEFAULT_CONFIG_PATH = "sampler.yaml"

func main() {
	configPath := flag.String("config", DEFAULT_CONFIG_PATH, "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// first initialize the main logger
	logger, closeLog, err := logger.NewLogger(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		panic(err)
	}

	// context handler for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown requested")
		cancel()
	}()

	// run has released the console by the time it returns
	err = run(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("sampler halted", zap.Error(err))
		_ = closeLog()
		os.Exit(1)
	}
	_ = closeLog()
}
