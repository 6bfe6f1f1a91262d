package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"budget-portal/cmd/portalctl/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, os.Stdout); err != nil {
		stop()
		os.Exit(1)
	}
}
