package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/flashbridge/flashbridge/cmd"
	"github.com/flashbridge/flashbridge/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer utils.CleanupLogger()

	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
