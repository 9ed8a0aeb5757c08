package transport

import (
	"context"
	"fmt"
	"path"
	"sync"

	"buildflow/internal/buildflow"
)

// MemoryTransport holds uploaded objects in a map. Safe for concurrent use.
type MemoryTransport struct {
	mu      sync.RWMutex
	objects map[string][]byte // key -> object bytes
}

// NewMemoryTransport creates an empty in-memory transport.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{objects: make(map[string][]byte)}
}

// RequestUploadTarget joins folder and filename into a key; the key is both
// the upload destination and the public reference.
func (t *MemoryTransport) RequestUploadTarget(_ context.Context, filename, _, folder string) (*buildflow.UploadTarget, error) {
	key := path.Join(folder, filename)
	return &buildflow.UploadTarget{UploadDestination: key, PublicRef: key}, nil
}

// PutBytes stores a copy of data under the destination key.
func (t *MemoryTransport) PutBytes(_ context.Context, uploadDestination string, data []byte, _ string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.objects[uploadDestination] = append([]byte(nil), data...)
	return nil
}

// RequestDownloadTarget returns the key itself as the download reference.
func (t *MemoryTransport) RequestDownloadTarget(_ context.Context, key string) (string, error) {
	return key, nil
}

// GetBytes returns the object stored under a reference.
func (t *MemoryTransport) GetBytes(_ context.Context, downloadRef string) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	data, ok := t.objects[downloadRef]
	if !ok {
		return nil, fmt.Errorf("%w: object not found: %s", buildflow.ErrTransportFailure, downloadRef)
	}
	return append([]byte(nil), data...), nil
}

// ValidateSetup always succeeds for the in-memory transport.
func (t *MemoryTransport) ValidateSetup(_ context.Context) error {
	return nil
}

// Object returns the stored bytes for a key and whether it exists.
func (t *MemoryTransport) Object(key string) ([]byte, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	data, ok := t.objects[key]
	return data, ok
}

// Len returns the number of stored objects.
func (t *MemoryTransport) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.objects)
}

// Compile-time check that MemoryTransport implements the Transport interface
var _ buildflow.Transport = (*MemoryTransport)(nil)
