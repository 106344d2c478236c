package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"kaffee/internal/amqp"
	"kaffee/internal/cli"
	"kaffee/internal/sheets"
	gsheet "kaffee/internal/sheets/google"
	mem "kaffee/internal/sheets/memory"
	"kaffee/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting kaffee-worker")

	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	// Pick the mirror backend. Google Sheets when configured, an in-memory
	// store otherwise so the worker can still drain queues in development.
	var mirror sheets.Mirror
	if cfg.MirrorEnabled() {
		sheetsClient, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		mirror = sheetsClient
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		mirror = mem.New()
		logger.Info("Google Sheets disabled - using in-memory mirror")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncWorker := worker.NewSyncWorker(sqliteRepo, mirror, cfg.SyncBatchSize)

	// Drain anything that piled up while the worker was down before
	// starting the live consumers.
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
		// Don't exit - continue with normal operation
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeMessages(gctx, func(msg *amqp.EntrySyncMessage) error {
			return syncWorker.HandleSyncMessage(gctx, msg)
		}, func(msg *amqp.EntrySyncMessage) error {
			return syncWorker.HandleDeleteMessage(gctx, msg)
		})
	})

	g.Go(func() error {
		return syncWorker.RunPendingSweep(gctx, cfg.SyncInterval)
	})

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-gctx.Done():
		}
	}()

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped with error", "error", err)
	}

	// Give any in-flight mirror writes a moment to settle.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
