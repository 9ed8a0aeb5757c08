package store

import (
	"fmt"
	"os"
	"path/filepath"

	"buildflow/internal/buildflow"
	"buildflow/internal/config"
)

// NewStoreFromConfig creates a Store implementation based on the store
// config type. The store opens lazily on first use; the open (and schema
// migration) runs exactly once no matter how many callers race to it.
func NewStoreFromConfig(cfg config.StoreConfig) (buildflow.Store, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite store")
		}
		dataDir := cfg.DataDir
		return NewLazy(func() (buildflow.Store, error) {
			if err := os.MkdirAll(dataDir, 0755); err != nil {
				return nil, fmt.Errorf("%w: creating data directory: %v", buildflow.ErrStoreUnavailable, err)
			}
			return NewSQLiteStore(filepath.Join(dataDir, "buildflow.db"))
		}), nil
	case "memory":
		return NewLazy(func() (buildflow.Store, error) {
			return NewSQLiteStore(":memory:")
		}), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
