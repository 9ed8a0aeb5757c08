package transport

import (
	"context"
	"fmt"

	"buildflow/internal/buildflow"
	"buildflow/internal/config"
)

// NewTransportFromConfig creates a Transport implementation based on the
// transport config type.
func NewTransportFromConfig(ctx context.Context, cfg config.TransportConfig) (buildflow.Transport, error) {
	switch cfg.Type {
	case "s3":
		return NewS3Transport(ctx, cfg)
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem transport requires fs_root to be set")
		}
		return NewFilesystemTransport(cfg.FSRoot)
	case "memory":
		return NewMemoryTransport(), nil
	default:
		return nil, fmt.Errorf("unknown transport type: %s", cfg.Type)
	}
}
