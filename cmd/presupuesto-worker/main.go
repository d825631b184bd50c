package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"presupuesto/internal/amqp"
	"presupuesto/internal/cache"
	"presupuesto/internal/cli"
	"presupuesto/internal/log"
	"presupuesto/internal/worker"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting presupuesto-worker", log.FieldOperation, log.OpStartup)

	if cfg.AMQPURL == "" {
		err := errors.New("AMQP_URL is required for the worker")
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		return err
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	exporter, err := cli.NewExporter(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize month exporter", log.FieldError, err.Error())
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		return err
	}
	defer client.Close()

	exportWorker := worker.NewExportWorker(exporter, cfg.ExportRetryAttempts, cfg.ExportRetryDelay, logger)

	cacheLogger := logger.WithComponent(log.ComponentCache)
	caches := cache.NewManager(func(removed int) {
		cacheLogger.Debug("Expired export ids evicted", "removed", removed)
	})
	caches.Register(exportWorker.Seen())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		caches.Run(gctx, time.Hour)
		return nil
	})
	g.Go(func() error {
		err := client.ConsumeMonthClosed(gctx, exportWorker.HandleMonthClosed)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", log.FieldError, err.Error())
		return err
	}
	logger.Info("Worker stopped gracefully", log.FieldOperation, log.OpShutdown)
	return nil
}
