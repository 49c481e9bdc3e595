package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var bucketDocuments = []byte("documents")

// BoltStorage implements domain.DocumentStorage using BoltDB.
type BoltStorage struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewBoltStorage opens (or creates) libria.db inside dir.
func NewBoltStorage(dir string) (*BoltStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "libria.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDocuments)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStorage{db: db, cache: make(map[string][]byte)}, nil
}

func (s *BoltStorage) Close() error {
	return s.db.Close()
}

func (s *BoltStorage) Read(name string) ([]byte, bool, error) {
	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return clone(data), true, nil
	}
	s.mu.RUnlock()

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(name)); v != nil {
			data = clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return nil, false, nil
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[name] = data
	s.mu.Unlock()

	return clone(data), true, nil
}

func (s *BoltStorage) Write(name string, data []byte) error {
	data = clone(data)

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		return b.Put([]byte(name), data)
	})
	if err != nil {
		// Drop the cached copy so the next read sees what is on disk.
		s.mu.Lock()
		delete(s.cache, name)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.cache[name] = data
	s.mu.Unlock()
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
