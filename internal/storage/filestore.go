package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var errMissingDataDir = errors.New("storage: data directory required")

// FileStore keeps each collection in <dir>/<collection>.json. Documents are
// replaced via a temp file and rename so a crashed save never truncates the
// previous document.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore ensures the data directory exists and returns a store rooted
// at it.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errMissingDataDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) documentPath(collection Collection) string {
	return filepath.Join(s.dir, string(collection)+".json")
}

// Load reads the persisted document. Any read failure reports ok=false so
// callers fall back to their empty default.
func (s *FileStore) Load(collection Collection) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.documentPath(collection))
	if err != nil {
		return nil, false
	}
	return raw, true
}

// Save durably replaces the whole document for the collection.
func (s *FileStore) Save(collection Collection, document []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, string(collection)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(document); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.documentPath(collection)); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
