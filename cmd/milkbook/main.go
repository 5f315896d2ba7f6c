package main

import (
	"context"
	"net/http"
	"time"

	"milkbook/internal/amqp"
	"milkbook/internal/cli"
	apphttp "milkbook/internal/http"
	applog "milkbook/internal/log"
	"milkbook/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitStore(logger, cfg)
	defer store.Close()

	// AMQP is optional for the API server: if the broker is down,
	// notifications are recorded as pending and the worker sweep
	// delivers them later.
	var queue services.Publisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, notifications will rely on the worker sweep", "error", err)
	} else {
		queue = amqpClient
		defer amqpClient.Close()
	}

	ledger := services.NewLedgerService(store)
	notifications := services.NewNotificationService(store, queue)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, notifications)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting milkbook server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		return
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
