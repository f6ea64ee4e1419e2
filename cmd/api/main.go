package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/riskibarqy/sportfengur-relay/internal/app"
	"github.com/riskibarqy/sportfengur-relay/internal/config"
	"github.com/riskibarqy/sportfengur-relay/internal/observability"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.NewJSON(cfg.LogLevel, logging.Options{Debug: cfg.DebugMode})
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	pprofServer, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("start pprof: %w", err)
	}

	relay, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			"addr", cfg.HTTPAddr,
			"env", cfg.AppEnv,
			"vendor", cfg.SportFengurBaseURL,
			"webhook_secret_required", cfg.WebhookSecretRequired,
			"event_id_filter", cfg.EventIDFilter,
		)
		if err := relay.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			logger.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := relay.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := observability.StopPprofServer(pprofServer, logger, time.Second); err != nil {
		errs = append(errs, fmt.Errorf("stop pprof: %w", err))
	}
	if err := stopProfiler(); err != nil {
		errs = append(errs, fmt.Errorf("stop pyroscope: %w", err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown uptrace: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return err
	}

	logger.Info("http server stopped")
	return nil
}
