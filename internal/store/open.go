package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mmcdole/libria/internal/domain"
)

// Storage backends
const (
	BackendFile = "file"
	BackendBolt = "bolt"
)

// OpenStorage opens the configured backend. An empty dir means memory-only
// mode (no persistence). Documents live in a per-API subdirectory so
// caches for different mirrors never mix.
func OpenStorage(backend, baseDir, apiURL string) (domain.DocumentStorage, error) {
	if baseDir == "" {
		return NewMemoryStorage(), nil
	}

	dir := baseDir
	if apiURL != "" {
		dir = filepath.Join(baseDir, hashAPIURL(apiURL))
	}

	switch strings.ToLower(backend) {
	case "", BackendFile:
		s, err := NewFileStorage(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
		return s, nil
	case BackendBolt:
		s, err := NewBoltStorage(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func hashAPIURL(apiURL string) string {
	normalized := strings.TrimRight(strings.ToLower(apiURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}
