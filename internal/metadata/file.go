// Package metadata persists the single-slot last-backup record outside the
// main collections.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"buildflow/internal/buildflow"
)

// FileStore keeps the last-backup record as a small JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path. The file is
// created on first Set.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Get reads the record. A missing file means no backup has been recorded
// and returns (nil, nil); an unreadable or corrupt file is an error the
// caller may choose to treat the same way.
func (s *FileStore) Get() (*buildflow.BackupMetadata, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading last-backup record: %w", err)
	}

	var m buildflow.BackupMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing last-backup record: %w", err)
	}
	return &m, nil
}

// Set writes the record atomically (temp file + rename).
func (s *FileStore) Set(m *buildflow.BackupMetadata) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding last-backup record: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".lastBackup-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing last-backup record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming last-backup record: %w", err)
	}
	return nil
}

// Compile-time check that FileStore implements the MetadataStore interface
var _ buildflow.MetadataStore = (*FileStore)(nil)
