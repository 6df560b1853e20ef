package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budget/internal/cli"
	"budget/internal/config"
	apphttp "budget/internal/http"
	"budget/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	store, _ := cli.OpenStore(context.Background(), logger, cfg)

	// A failed first load leaves the defaults in place; /api/refresh retries.
	loadCtx, loadCancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	if err := store.Init(loadCtx); err != nil {
		logger.Error("Initial load failed, serving defaults", log.FieldError, err)
	}
	loadCancel()

	srv := apphttp.NewServer(":"+cfg.Port, store, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RequestTimeout:     cfg.RequestTimeout,
		Logger:             logger.WithComponent(log.ComponentHTTP),
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.RequestTimeout + 5*time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := store.Close(); err != nil {
			logger.Error("Failed to release backend", log.FieldError, err)
		}
	})

	logger.Info("Starting budget server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
