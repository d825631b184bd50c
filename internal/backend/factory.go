package backend

import (
	"context"
	"errors"
	"fmt"

	"presupuesto/internal/amqp"
	"presupuesto/internal/kv"
	"presupuesto/internal/kv/memory"
	"presupuesto/internal/log"
	"presupuesto/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store   kv.Store
		cleanup []func() error
	)
	switch config.Type {
	case SQLiteBackend:
		s, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		store = s
		cleanup = append(cleanup, s.Close)
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		if config.SeedFile != "" {
			store = memory.NewFromFile(config.SeedFile)
		} else {
			store = memory.New()
		}
		f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", config.SeedFile)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result := &BackendResult{Store: store}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WithComponent(log.ComponentAMQP).WarnContext(ctx, "Failed to initialize AMQP client, continuing without events",
				log.FieldError, err.Error())
		} else {
			result.Publisher = client
			cleanup = append(cleanup, client.Close)
			f.logger.WithComponent(log.ComponentAMQP).InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		for i := len(cleanup) - 1; i >= 0; i-- {
			if err := cleanup[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return result, nil
}
