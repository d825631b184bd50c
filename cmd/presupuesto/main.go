package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"presupuesto/internal/backend"
	"presupuesto/internal/cli"
	apphttp "presupuesto/internal/http"
	"presupuesto/internal/log"
	"presupuesto/internal/persistence"
	"presupuesto/internal/services"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	opts := []services.Option{services.WithLogger(logger)}
	if res.Publisher != nil {
		opts = append(opts, services.WithPublisher(res.Publisher))
	}
	svc := services.Open(ctx, persistence.NewBridge(res.Store, logger), opts...)

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{Store: res.Store, Logger: logger})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting presupuesto server", log.FieldOperation, log.OpStartup, "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err.Error())
		return err
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
	return nil
}
