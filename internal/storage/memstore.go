package storage

import "sync"

// MemoryStore holds documents in memory. It backs deterministic tests and
// mirrors the degraded-to-empty contract of FileStore.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[Collection][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{documents: map[Collection][]byte{}}
}

// Load returns the saved document, or ok=false when nothing was saved.
func (s *MemoryStore) Load(collection Collection) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.documents[collection]
	if !ok {
		return nil, false
	}
	copied := make([]byte, len(raw))
	copy(copied, raw)
	return copied, true
}

// Save replaces the stored document.
func (s *MemoryStore) Save(collection Collection, document []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]byte, len(document))
	copy(copied, document)
	s.documents[collection] = copied
	return nil
}
