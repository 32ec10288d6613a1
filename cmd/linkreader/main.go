package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/muratoffalex/linkreader/internal/app"
)

var (
	version   string
	buildTime string
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		return 1
	}
	defer application.Close()

	application.Logger.WithField("version", version).WithField("build_time", buildTime).Debug("Starting application")

	if err := application.Start(ctx); err != nil {
		if !errors.Is(err, app.ErrLoadFailed) && !errors.Is(err, app.ErrNoURLs) {
			application.Logger.WithError(err).Error("Application failed")
		}
		return 1
	}
	return 0
}
