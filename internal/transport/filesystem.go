package transport

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"buildflow/internal/buildflow"
)

// FilesystemTransport is a directory-backed stand-in for remote storage:
// objects live as files under a root, keys are slash-separated relative
// paths. Useful when running without cloud storage and in tests that want
// real file I/O.
type FilesystemTransport struct {
	root string
}

// NewFilesystemTransport creates a transport rooted at the given directory.
func NewFilesystemTransport(root string) (*FilesystemTransport, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating transport root: %v", buildflow.ErrTransportFailure, err)
	}
	return &FilesystemTransport{root: root}, nil
}

// RequestUploadTarget maps filename and folder onto a path under the root.
func (t *FilesystemTransport) RequestUploadTarget(_ context.Context, filename, _, folder string) (*buildflow.UploadTarget, error) {
	key := path.Join(folder, filename)
	return &buildflow.UploadTarget{
		UploadDestination: filepath.Join(t.root, filepath.FromSlash(key)),
		PublicRef:         key,
	}, nil
}

// PutBytes writes data to the destination path atomically (temp file +
// rename), so a crashed upload never leaves a truncated object.
func (t *FilesystemTransport) PutBytes(_ context.Context, uploadDestination string, data []byte, _ string) error {
	dir := filepath.Dir(uploadDestination)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: creating object directory: %v", buildflow.ErrTransportFailure, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", buildflow.ErrTransportFailure, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: writing object: %v", buildflow.ErrTransportFailure, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: closing temp file: %v", buildflow.ErrTransportFailure, err)
	}

	if err := os.Rename(tmpPath, uploadDestination); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: renaming temp file: %v", buildflow.ErrTransportFailure, err)
	}
	return nil
}

// RequestDownloadTarget maps a key back onto its path under the root.
func (t *FilesystemTransport) RequestDownloadTarget(_ context.Context, key string) (string, error) {
	return filepath.Join(t.root, filepath.FromSlash(key)), nil
}

// GetBytes reads the object file behind a download reference.
func (t *FilesystemTransport) GetBytes(_ context.Context, downloadRef string) ([]byte, error) {
	data, err := os.ReadFile(downloadRef)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: object not found: %s", buildflow.ErrTransportFailure, downloadRef)
		}
		return nil, fmt.Errorf("%w: reading object: %v", buildflow.ErrTransportFailure, err)
	}
	return data, nil
}

// ValidateSetup verifies the root directory is accessible.
func (t *FilesystemTransport) ValidateSetup(_ context.Context) error {
	info, err := os.Stat(t.root)
	if err != nil {
		return fmt.Errorf("%w: transport root not accessible: %v", buildflow.ErrTransportFailure, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: transport root is not a directory: %s", buildflow.ErrTransportFailure, t.root)
	}
	return nil
}

// Compile-time check that FilesystemTransport implements the Transport interface
var _ buildflow.Transport = (*FilesystemTransport)(nil)
