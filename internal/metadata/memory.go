package metadata

import (
	"sync"

	"buildflow/internal/buildflow"
)

// MemoryStore keeps the last-backup record in memory. Safe for concurrent
// use.
type MemoryStore struct {
	mu sync.Mutex
	m  *buildflow.BackupMetadata
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get() (*buildflow.BackupMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		return nil, nil
	}
	copied := *s.m
	return &copied, nil
}

func (s *MemoryStore) Set(m *buildflow.BackupMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *m
	s.m = &copied
	return nil
}

// Compile-time check that MemoryStore implements the MetadataStore interface
var _ buildflow.MetadataStore = (*MemoryStore)(nil)
