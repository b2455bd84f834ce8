package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"autojv/internal/cli"
)

// Version is set during build time via ldflags
var Version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, Version, os.Args[1:])
	cancel()
	os.Exit(code)
}
