package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/argos/internal/cli"
	"github.com/okian/argos/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Root context with cancel on SIGINT/SIGTERM; pending decodes stop.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := cli.Execute(ctx, args, os.Stdout, os.Stderr)
	_ = logger.Sync()
	return code
}
