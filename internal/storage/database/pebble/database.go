// Package pebble stores ledger state in CockroachDB's pebble.
package pebble

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/LeJamon/goListingd/internal/storage/database"
)

// DB is a pebble store. Every commit is one atomic pebble batch.
type DB struct {
	db     *pebble.DB
	write  *pebble.WriteOptions
	handle database.Handle
}

func newDB(db *pebble.DB, noSync bool) *DB {
	w := pebble.Sync
	if noSync {
		w = pebble.NoSync
	}
	return &DB{db: db, write: w}
}

func (p *DB) close() error {
	p.handle.MarkClosed()
	return p.db.Close()
}

func (p *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if err := p.handle.Check(ctx); err != nil {
		return nil, err
	}

	val, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, database.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	// val is only valid until closer is closed
	return append([]byte(nil), val...), nil
}

func (p *DB) Write(ctx context.Context, key, value []byte) error {
	return p.Batch(ctx, []database.BatchOperation{database.Put(key, value)})
}

func (p *DB) Delete(ctx context.Context, key []byte) error {
	return p.Batch(ctx, []database.BatchOperation{database.Del(key)})
}

func (p *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	if err := p.handle.Check(ctx); err != nil {
		return err
	}

	batch := p.db.NewBatch()
	defer batch.Close()
	for _, op := range ops {
		var err error
		switch op.Type {
		case database.BatchPut:
			err = batch.Set(op.Key, op.Value, nil)
		case database.BatchDelete:
			err = batch.Delete(op.Key, nil)
		default:
			return fmt.Errorf("%w: %d", database.ErrUnknownBatchOp, op.Type)
		}
		if err != nil {
			return err
		}
	}
	return batch.Commit(p.write)
}

func (p *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	if err := p.handle.Check(ctx); err != nil {
		return nil, err
	}
	iter, err := p.db.NewIter(&pebble.IterOptions{LowerBound: start, UpperBound: end})
	if err != nil {
		return nil, err
	}
	return &iterator{iter: iter}, nil
}

// iterator copies each entry out of pebble's buffers.
type iterator struct {
	iter       *pebble.Iterator
	started    bool
	key, value []byte
}

func (it *iterator) Next() bool {
	var ok bool
	if it.started {
		ok = it.iter.Next()
	} else {
		it.started = true
		ok = it.iter.First()
	}
	if !ok {
		it.key, it.value = nil, nil
		return false
	}
	it.key = append(it.key[:0:0], it.iter.Key()...)
	it.value = append(it.value[:0:0], it.iter.Value()...)
	return true
}

func (it *iterator) Key() []byte   { return it.key }
func (it *iterator) Value() []byte { return it.value }
func (it *iterator) Error() error  { return it.iter.Error() }
func (it *iterator) Close() error  { return it.iter.Close() }
