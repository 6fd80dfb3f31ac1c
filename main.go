package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}
