// Package leveldb stores ledger state in goleveldb.
package leveldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/LeJamon/goListingd/internal/storage/database"
)

// DB is a leveldb store. A commit is one leveldb.Batch.
type DB struct {
	db     *leveldb.DB
	write  *opt.WriteOptions
	handle database.Handle
}

func (l *DB) close() error {
	l.handle.MarkClosed()
	return l.db.Close()
}

func (l *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if err := l.handle.Check(ctx); err != nil {
		return nil, err
	}
	// goleveldb returns a copy
	val, err := l.db.Get(key, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, database.ErrKeyNotFound
	case errors.Is(err, leveldb.ErrClosed):
		return nil, database.ErrDBClosed
	}
	return val, err
}

func (l *DB) Write(ctx context.Context, key, value []byte) error {
	return l.Batch(ctx, []database.BatchOperation{database.Put(key, value)})
}

func (l *DB) Delete(ctx context.Context, key []byte) error {
	return l.Batch(ctx, []database.BatchOperation{database.Del(key)})
}

func (l *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	if err := l.handle.Check(ctx); err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case database.BatchPut:
			batch.Put(op.Key, op.Value)
		case database.BatchDelete:
			batch.Delete(op.Key)
		default:
			return fmt.Errorf("%w: %d", database.ErrUnknownBatchOp, op.Type)
		}
	}
	return l.db.Write(batch, l.write)
}

func (l *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	if err := l.handle.Check(ctx); err != nil {
		return nil, err
	}
	return &iter{it: l.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)}, nil
}

type iter struct {
	it         iterator.Iterator
	key, value []byte
}

func (i *iter) Next() bool {
	if !i.it.Next() {
		i.key, i.value = nil, nil
		return false
	}
	i.key = append([]byte(nil), i.it.Key()...)
	i.value = append([]byte(nil), i.it.Value()...)
	return true
}

func (i *iter) Key() []byte   { return i.key }
func (i *iter) Value() []byte { return i.value }
func (i *iter) Error() error  { return i.it.Error() }

func (i *iter) Close() error {
	i.it.Release()
	return nil
}
