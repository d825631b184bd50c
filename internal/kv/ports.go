// Package kv defines the string key-value store the ledger is persisted to.
package kv

import "context"

type (
	// Store is an opaque string key-value store.
	Store interface {
		// Get returns the value for key and whether it exists.
		Get(ctx context.Context, key string) (value string, ok bool, err error)
		// Set overwrites the value for key.
		Set(ctx context.Context, key, value string) error
		// Has reports whether key exists.
		Has(ctx context.Context, key string) (bool, error)
	}

	// BatchWriter is implemented by stores that can write several keys
	// atomically: either every entry is stored or none is.
	BatchWriter interface {
		SetMany(ctx context.Context, entries map[string]string) error
	}

	// Pinger is implemented by stores with a reachable backing service.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
