package storage

import (
	"fmt"

	"payment-router/internal/common/errors"
)

// Factory builds a storage adapter from a backend-specific config. The
// sqlite and postgres packages register themselves through their New
// functions; the indirection keeps this package free of driver imports.
type Factory func(config StorageConfig) (Storage, error)

var factories = map[string]Factory{}

// RegisterFactory registers a storage backend under its type name.
// Called from adapter package init functions.
func RegisterFactory(storageType string, factory Factory) {
	factories[storageType] = factory
}

// Create builds a storage adapter for the given backend type.
func Create(storageType string, config StorageConfig) (Storage, error) {
	factory, ok := factories[storageType]
	if !ok {
		return nil, errors.ConfigError(fmt.Sprintf("unsupported database type: %s", storageType))
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return factory(config)
}
