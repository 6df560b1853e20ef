package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/core"
	"budget/internal/export"
	"budget/internal/log"
)

func main() {
	out := flag.String("o", "", "output file (default budget_YYYYMMDD.xlsx)")
	year := flag.Int("year", 0, "summary year (default current)")
	month := flag.Int("month", 0, "summary month 1-12 (default current)")
	flag.Parse()

	cli.LoadEnvFile()

	cfg := cli.LoadConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg, log.ComponentExport)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, _ := cli.OpenStore(ctx, logger, cfg)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to release backend", log.FieldError, err)
		}
	}()
	if err := store.Init(ctx); err != nil {
		logger.Error("Failed to load budget data", log.FieldError, err)
		os.Exit(1)
	}

	now := store.Now()
	ref := now
	if *year != 0 || *month != 0 {
		y, m := now.Year(), now.Month()
		if *year != 0 {
			y = *year
		}
		if *month != 0 {
			if *month < 1 || *month > 12 {
				logger.Error("Invalid month", "month", *month)
				os.Exit(2)
			}
			m = time.Month(*month)
		}
		ref = time.Date(y, m, 1, 12, 0, 0, 0, now.Location())
	}

	path := *out
	if path == "" {
		path = fmt.Sprintf("budget_%s.xlsx", now.Format("20060102"))
	}

	if err := writeFile(path, store.Data(), ref); err != nil {
		logger.Error("Export failed", log.FieldError, err, "path", path)
		os.Exit(1)
	}
	logger.Info("Workbook written", "path", path, "year", ref.Year(), "month", int(ref.Month()))
}

func writeFile(path string, snap core.Snapshot, ref time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteWorkbook(f, snap, core.Summarize(snap, ref)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
