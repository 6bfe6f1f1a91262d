package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"budget-portal/internal/config"
	"budget-portal/internal/infrastructure/logger"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newServer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	err = s.run(ctx, ":"+cfg.AppPort)
	s.close()
	if err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
