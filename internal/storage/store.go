// Package storage provides read-only access to pre-generated basin artifacts.
package storage

import (
	"errors"
	"fmt"

	"github.com/chrissnell/basinview/pkg/config"
	"go.uber.org/zap"
)

// ErrNotFound is returned by a Store when no artifact exists at a path
var ErrNotFound = errors.New("no artifact at path")

// Store reads artifacts by their resolved storage path.
// Implementations must return an error wrapping ErrNotFound for a missing artifact.
type Store interface {
	ReadFile(path string) ([]byte, error)
}

// New creates the Store described by the storage configuration
func New(sc config.StorageData, logger *zap.SugaredLogger) (Store, error) {
	switch sc.Backend {
	case "", config.StorageBackendFilesystem:
		logger.Infof("serving basin artifacts from %s", sc.Root)
		return NewFileStore(sc.Root), nil
	case config.StorageBackendDatabase:
		return NewDatabaseStore(sc.ConnectionString, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", sc.Backend)
	}
}
