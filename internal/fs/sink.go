// Package fs provides the local file sink used for manual backup exports
// and imports.
package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"buildflow/internal/buildflow"
)

// OSFileSink writes offered downloads into a downloads directory and reads
// user-selected files from disk.
type OSFileSink struct {
	downloadDir string
}

// NewOSFileSink creates a sink that saves downloads under downloadDir.
func NewOSFileSink(downloadDir string) *OSFileSink {
	return &OSFileSink{downloadDir: downloadDir}
}

// OfferDownload saves data as a named file in the downloads directory and
// returns its path. The write is atomic (temp file + rename).
func (s *OSFileSink) OfferDownload(data []byte, filename string) (string, error) {
	if err := os.MkdirAll(s.downloadDir, 0755); err != nil {
		return "", fmt.Errorf("creating downloads directory: %w", err)
	}

	destPath := filepath.Join(s.downloadDir, filename)
	tmp, err := os.CreateTemp(s.downloadDir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming download: %w", err)
	}
	return destPath, nil
}

// ReadSelectedFile returns the raw bytes of the file at ref.
func (s *OSFileSink) ReadSelectedFile(ref string) ([]byte, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("reading selected file: %w", err)
	}
	return data, nil
}

// Compile-time check that OSFileSink implements the FileSink interface
var _ buildflow.FileSink = (*OSFileSink)(nil)
