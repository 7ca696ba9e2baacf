package leveldb

import (
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/LeJamon/goListingd/internal/storage/database"
)

// Manager opens one leveldb directory per name.
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

func (m *Manager) open(name string) (database.DB, func() error, error) {
	dbPath := filepath.Join(m.path, name+".ldb")
	ldb, err := leveldb.OpenFile(dbPath, &opt.Options{
		BlockCacheCapacity: int(m.opts.CacheBytes),
		Filter:             filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, nil, err
	}

	db := &DB{db: ldb, write: &opt.WriteOptions{Sync: !m.opts.NoSync}}
	m.opts.Log.Debugf("Opened leveldb %s (cache %d MiB, sync %v)",
		dbPath, m.opts.CacheBytes>>20, !m.opts.NoSync)
	return db, db.close, nil
}

