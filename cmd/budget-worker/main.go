package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"budget/internal/amqp"
	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/log"
	gsheet "budget/internal/sheets/google"
	"budget/internal/worker"
)

func main() {
	resync := flag.Bool("resync", false, "rewrite every stored transaction into the ledger sheet before consuming")
	flag.Parse()

	cli.LoadEnvFile()

	cfg := cli.LoadConfig((*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting budget-worker")

	sheetsClient, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", sheetsClient.SheetName())

	mirror := worker.NewLedgerMirror(sheetsClient, logger.WithComponent(log.ComponentSheets))

	if *resync {
		runResync(logger, cfg, mirror)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	})

	go func() {
		if err := amqpClient.ConsumeChanges(ctx, mirror.Handle); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}

// runResync reads the configured backend directly, without publishing.
func runResync(logger *log.Logger, cfg *config.Config, mirror *worker.LedgerMirror) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	bcfg.AMQPURL = ""

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to open backend for resync", log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if res.Cleanup != nil {
			_ = res.Cleanup()
		}
	}()

	synced, failed, err := mirror.Resync(ctx, res.Gateway)
	if err != nil {
		logger.Error("Ledger resync failed", log.FieldError, err)
		return
	}
	logger.Info("Ledger resync finished", "synced", synced, "failed", failed)
}
