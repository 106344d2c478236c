package main

import (
	"context"
	"net/http"
	"time"

	"kaffee/internal/amqp"
	"kaffee/internal/cli"
	apphttp "kaffee/internal/http"
	"kaffee/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// AMQP is optional for the web server: entries are saved locally first
	// and the mirror catches up later, so a missing broker only loses the
	// immediate sync notification.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without sync notifications", "error", err)
			amqpClient = nil
		}
	}

	// Ledger service owns and closes both the repository and the AMQP client.
	ledger := services.NewLedgerService(sqliteRepo, amqpClient)
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Error("Ledger service close error", "error", err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, ledger, sqliteRepo)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting kaffee server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		return
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
