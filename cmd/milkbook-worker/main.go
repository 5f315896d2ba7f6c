package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"milkbook/internal/amqp"
	"milkbook/internal/cli"
	applog "milkbook/internal/log"
	"milkbook/internal/sms"
	smsmemory "milkbook/internal/sms/memory"
	"milkbook/internal/sms/smslocal"
	"milkbook/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting milkbook-worker")

	store := cli.InitStore(logger, cfg)
	defer store.Close()

	var sender sms.Sender
	if cfg.SMSAPIKey != "" {
		sender = smslocal.NewClient(cfg.SMSGatewayURL, cfg.SMSAPIKey, cfg.SMSCountryCode)
		logger.Info("SMS gateway configured", "url", cfg.SMSGatewayURL)
	} else {
		sender = smsmemory.NewSender()
		logger.Warn("No SMS_API_KEY set, messages will be recorded but not delivered")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		return
	}
	defer amqpClient.Close()

	notifyWorker := worker.NewNotifyWorker(store, sender, cfg.SweepBatchSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Deliver anything that was left pending before this process started.
	if err := notifyWorker.ProcessPending(ctx); err != nil {
		logger.Error("Startup sweep failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeNotifications(gctx, func(msg *amqp.NotificationMessage) error {
			return notifyWorker.HandleMessage(gctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := notifyWorker.ProcessPending(gctx); err != nil {
					logger.Error("Periodic sweep failed", "error", err)
				}
			}
		}
	})

	_, done := cli.GracefulShutdown(logger, 30*time.Second, cancel)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		return
	}
	<-done
	logger.Info("Worker shutdown complete")
}
