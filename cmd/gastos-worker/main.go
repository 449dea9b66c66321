package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"gastos/internal/amqp"
	"gastos/internal/config"
	"gastos/internal/export"
	gsheet "gastos/internal/export/google"
	"gastos/internal/export/memory"
	"gastos/internal/log"
	"gastos/internal/storage"
	"gastos/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: log.ComponentWorker})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to open storage", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Without a spreadsheet the worker still drains pending rows into an
	// in-process sink, which keeps local development moving.
	var sink export.RowAppender
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg)
		if err != nil {
			logger.Error("failed to initialize sheet export", log.FieldError, err)
			os.Exit(1)
		}
		sink = client
		logger.Info("sheet export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		sink = memory.New()
		logger.Warn("no GOOGLE_SPREADSHEET_ID, exporting to in-memory sink")
	}

	exportWorker := worker.NewExportWorker(repo, sink, cfg.ExportBatchSize, logger)

	g, ctx := errgroup.WithContext(ctx)

	// Event-driven path, only when AMQP is configured.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("failed to connect to AMQP", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			err := amqpClient.ConsumeExpenseEvents(ctx, exportWorker.HandleEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled, relying on the periodic sweep only")
	}

	// Catch-up sweep for rows the event path missed.
	g.Go(func() error {
		err := exportWorker.Run(ctx, cfg.ExportInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	logger.Info("worker started",
		"batch_size", cfg.ExportBatchSize,
		"interval", cfg.ExportInterval.String())

	if err := g.Wait(); err != nil {
		logger.Error("worker error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
