package bbolt

import (
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/LeJamon/goListingd/internal/storage/database"
)

// openTimeout bounds the wait for the file lock held by another process.
const openTimeout = time.Second

// Manager opens one bolt file per name, holding a single bucket of the
// same name.
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
	dbPath := filepath.Join(m.path, name+".bolt")
	bdb, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout: openTimeout,
		NoSync:  m.opts.NoSync,
	})
	if err != nil {
		return nil, nil, err
	}

	bucket := []byte(name)
	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, nil, fmt.Errorf("create bucket: %w", err)
	}

	db := &DB{db: bdb, bucket: bucket}
	m.opts.Log.Debugf("Opened bolt file %s (sync %v)", dbPath, !m.opts.NoSync)
	return db, db.close, nil
}

