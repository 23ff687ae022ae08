package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/dyluth/warren/internal/ingest"
	"github.com/dyluth/warren/internal/logging"
)

func main() {
	os.Exit(run())
}

// run contains the main logic and returns an exit code, so deferred
// functions run before exit.
func run() int {
	log, err := logging.New(os.Getenv("WARREN_DEBUG") != "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer log.Sync()

	cfg, err := ingest.LoadServiceConfig()
	if err != nil {
		log.Error("configuration_error", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ingest.Serve(ctx, cfg, logging.Component(log, "ingest")); err != nil {
		log.Error("ingest_failed", zap.Error(err))
		return 1
	}
	log.Info("ingest_stopped")
	return 0
}
