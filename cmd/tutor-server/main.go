// Command tutor-server runs the token/catalog HTTP service the frontend
// talks to before joining a room.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/trumchinese/tutor-agent/pkg/agent/catalog"
	"github.com/trumchinese/tutor-agent/pkg/server"
	"github.com/trumchinese/tutor-agent/pkg/server/config"
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

	srv := server.New(cfg, cat, logger)
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	logger.Info("starting token/catalog service", "addr", cfg.Addr)

	select {
	case err := <-listenErrCh:
		if err != nil {
			logger.Error("serve", "error", err)
			return 1
		}
		return 0
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown http server", "error", err)
		return 1
	}

	if err := <-listenErrCh; err != nil {
		logger.Error("serve", "error", err)
		return 1
	}

	logger.Info("token/catalog service stopped")
	return 0
}
