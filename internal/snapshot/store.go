// Package snapshot persists the level chain between runs under the fixed
// key "levelFormData", on disk or in SQLite.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Key is the storage key the chain snapshot lives under.
const Key = "levelFormData"

// ErrNotFound is returned by a Store when the key has never been written.
var ErrNotFound = errors.New("snapshot not found")

// Store is a minimal key/value backend.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	// UpdatedAt reports when key was last written, or ErrNotFound.
	UpdatedAt(key string) (time.Time, error)
	// Location describes where data lives, for diagnostics.
	Location() string
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend rooted at dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(dir)
	case BackendSQLite:
		return OpenSQLite(SQLitePath(dir))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state dir %s: %w", dir, err)
	}
	return nil
}
