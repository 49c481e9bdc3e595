package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage keeps one UTF-8 JSON file per document ("<name>.cache").
// Writes truncate and rewrite the whole file; there is no temp file.
type FileStorage struct {
	dir string
	mu  sync.Mutex
}

// NewFileStorage creates dir if needed.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStorage{dir: dir}, nil
}

// Path returns the file backing a document.
func (s *FileStorage) Path(name string) string {
	return filepath.Join(s.dir, name+".cache")
}

func (s *FileStorage) Read(name string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *FileStorage) Write(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.Path(name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *FileStorage) Close() error { return nil }

// MemoryStorage keeps documents in memory only (no persistence).
type MemoryStorage struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStorage returns an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{docs: make(map[string][]byte)}
}

func (s *MemoryStorage) Read(name string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[name]
	if !ok {
		return nil, false, nil
	}
	return clone(data), true, nil
}

func (s *MemoryStorage) Write(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = clone(data)
	return nil
}

func (s *MemoryStorage) Close() error { return nil }
