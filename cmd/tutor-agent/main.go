// Command tutor-agent joins one room as the Chinese conversation tutor and
// serves the session until the student leaves or the process is stopped.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/trumchinese/tutor-agent/pkg/agent"
	"github.com/trumchinese/tutor-agent/pkg/agent/catalog"
	"github.com/trumchinese/tutor-agent/pkg/agent/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Error("load config", "error", err)
		return 1
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("load topic catalog", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job := &agent.Job{Config: cfg, Catalog: cat, Logger: logger}
	if err := job.Run(ctx); err != nil {
		logger.Error("session job failed", "error", err)
		return 1
	}

	logger.Info("session job finished")
	return 0
}
