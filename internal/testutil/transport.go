package testutil

import (
	"context"
	"fmt"

	"buildflow/internal/buildflow"
	"buildflow/internal/transport"
)

// NewTestTransport creates an in-memory transport for testing.
func NewTestTransport() *transport.MemoryTransport {
	return transport.NewMemoryTransport()
}

// FailingTransport fails every operation with a wrapped ErrTransportFailure.
// Useful for exercising backup error paths.
type FailingTransport struct{}

func (FailingTransport) RequestUploadTarget(ctx context.Context, filename, contentType, folder string) (*buildflow.UploadTarget, error) {
	return nil, fmt.Errorf("%w: upload negotiation refused", buildflow.ErrTransportFailure)
}

func (FailingTransport) PutBytes(ctx context.Context, uploadDestination string, data []byte, contentType string) error {
	return fmt.Errorf("%w: upload refused", buildflow.ErrTransportFailure)
}

func (FailingTransport) RequestDownloadTarget(ctx context.Context, key string) (string, error) {
	return "", fmt.Errorf("%w: download negotiation refused", buildflow.ErrTransportFailure)
}

func (FailingTransport) GetBytes(ctx context.Context, downloadRef string) ([]byte, error) {
	return nil, fmt.Errorf("%w: download refused", buildflow.ErrTransportFailure)
}

func (FailingTransport) ValidateSetup(ctx context.Context) error {
	return fmt.Errorf("%w: unreachable", buildflow.ErrTransportFailure)
}

var _ buildflow.Transport = FailingTransport{}
