package pebble

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"

	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/storage/database"
)

// Manager opens one pebble store per name under a directory.
type Manager struct {
	*database.Registry
	path string
	opts database.Options
}

func NewManager(path string, opts database.Options) *Manager {
	m := &Manager{path: path, opts: opts.WithDefaults()}
	m.Registry = database.NewRegistry(m.open)
	return m
}

// options tunes pebble for ledger entries: small values read by exact
// 32-byte key, so every level carries a bloom filter.
func (m *Manager) options() *pebble.Options {
	opts := &pebble.Options{
		Cache:  pebble.NewCache(m.opts.CacheBytes),
		Logger: pebbleLogger{m.opts.Log},
		Levels: make([]pebble.LevelOptions, 7),
	}
	for i := range opts.Levels {
		opts.Levels[i] = pebble.LevelOptions{
			FilterPolicy: bloom.FilterPolicy(10),
			FilterType:   pebble.TableFilter,
		}
	}
	return opts
}

func (m *Manager) open(name string) (database.DB, func() error, error) {
	dbPath := filepath.Join(m.path, name+".pebble")
	opts := m.options()
	db, err := pebble.Open(dbPath, opts)
	// the store holds its own reference
	opts.Cache.Unref()
	if err != nil {
		return nil, nil, err
	}

	wrapped := newDB(db, m.opts.NoSync)
	m.opts.Log.Debugf("Opened pebble store %s (cache %d MiB, sync %v)",
		dbPath, m.opts.CacheBytes>>20, !m.opts.NoSync)
	return wrapped, wrapped.close, nil
}


// pebbleLogger routes pebble's own messages to the DB subsystem.
type pebbleLogger struct {
	log logging.Logger
}

func (l pebbleLogger) Infof(format string, args ...interface{}) {
	l.log.Debugf("pebble: "+format, args...)
}

func (l pebbleLogger) Errorf(format string, args ...interface{}) {
	l.log.Errorf("pebble: "+format, args...)
}

func (l pebbleLogger) Fatalf(format string, args ...interface{}) {
	l.log.Criticalf("pebble: "+format, args...)
	os.Exit(1)
}
