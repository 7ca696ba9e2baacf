// Package backends selects a database.Manager by name.
package backends

import (
	"fmt"
	"os"

	"github.com/LeJamon/goListingd/internal/storage/database"
	"github.com/LeJamon/goListingd/internal/storage/database/bbolt"
	"github.com/LeJamon/goListingd/internal/storage/database/leveldb"
	"github.com/LeJamon/goListingd/internal/storage/database/memory"
	"github.com/LeJamon/goListingd/internal/storage/database/pebble"
)

const (
	Memory  = "memory"
	Pebble  = "pebble"
	Bbolt   = "bbolt"
	LevelDB = "leveldb"
)

// Names lists the supported backends.
func Names() []string {
	return []string{Memory, Pebble, Bbolt, LevelDB}
}

// Open returns a manager for backend rooted at path. Disk backends create
// path if needed.
func Open(backend, path string, opts database.Options) (database.Manager, error) {
	if backend == Memory {
		return memory.NewManager(), nil
	}
	if path == "" {
		return nil, fmt.Errorf("backend %s needs a path", backend)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	switch backend {
	case Pebble:
		return pebble.NewManager(path, opts), nil
	case Bbolt:
		return bbolt.NewManager(path, opts), nil
	case LevelDB:
		return leveldb.NewManager(path, opts), nil
	default:
		return nil, fmt.Errorf("unknown database backend %q", backend)
	}
}
