package testutil

import (
	"fmt"
	"sync"

	"buildflow/internal/buildflow"
)

// MemorySink is an in-memory FileSink. Offered downloads are retrievable by
// filename, and files can be pre-seeded for ReadSelectedFile.
type MemorySink struct {
	mu    sync.Mutex
	files map[string][]byte
}

func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]byte)}
}

func (s *MemorySink) OfferDownload(data []byte, filename string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.files[filename] = cp
	return filename, nil
}

func (s *MemorySink) ReadSelectedFile(ref string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[ref]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", ref)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// AddFile pre-seeds a file so ReadSelectedFile can find it.
func (s *MemorySink) AddFile(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
}

// File returns the bytes offered under name, or nil.
func (s *MemorySink) File(name string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[name]
}

var _ buildflow.FileSink = (*MemorySink)(nil)
