// Package bbolt stores ledger state in a single-bucket bolt file.
package bbolt

import (
	"bytes"
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/LeJamon/goListingd/internal/storage/database"
)

// DB is a bolt bucket. A commit is one read-write bolt transaction.
type DB struct {
	db     *bbolt.DB
	bucket []byte
	handle database.Handle
}

func (b *DB) close() error {
	b.handle.MarkClosed()
	return b.db.Close()
}

func (b *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if err := b.handle.Check(ctx); err != nil {
		return nil, err
	}

	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(b.bucket).Get(key)
		if v == nil {
			return database.ErrKeyNotFound
		}
		// bbolt values are only valid during the transaction
		value = bytes.Clone(v)
		return nil
	})
	return value, err
}

func (b *DB) Write(ctx context.Context, key []byte, value []byte) error {
	return b.Batch(ctx, []database.BatchOperation{database.Put(key, value)})
}

func (b *DB) Delete(ctx context.Context, key []byte) error {
	return b.Batch(ctx, []database.BatchOperation{database.Del(key)})
}

func (b *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	if err := b.handle.Check(ctx); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		for _, op := range ops {
			var err error
			switch op.Type {
			case database.BatchPut:
				err = bucket.Put(op.Key, op.Value)
			case database.BatchDelete:
				err = bucket.Delete(op.Key)
			default:
				return fmt.Errorf("%w: %d", database.ErrUnknownBatchOp, op.Type)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Iterator holds a read transaction open until Close. Writers are not
// blocked, but the pages it sees are kept until then.
func (b *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	if err := b.handle.Check(ctx); err != nil {
		return nil, err
	}
	tx, err := b.db.Begin(false)
	if err != nil {
		return nil, err
	}
	return &iterator{
		tx:     tx,
		cursor: tx.Bucket(b.bucket).Cursor(),
		start:  start,
		end:    end,
	}, nil
}

type iterator struct {
	tx         *bbolt.Tx
	cursor     *bbolt.Cursor
	started    bool
	start, end []byte
	key, value []byte
}

func (it *iterator) Next() bool {
	var k, v []byte
	switch {
	case it.started:
		k, v = it.cursor.Next()
	case it.start == nil:
		k, v = it.cursor.First()
	default:
		k, v = it.cursor.Seek(it.start)
	}
	it.started = true

	if k == nil || (it.end != nil && bytes.Compare(k, it.end) >= 0) {
		it.key, it.value = nil, nil
		return false
	}
	it.key, it.value = bytes.Clone(k), bytes.Clone(v)
	return true
}

func (it *iterator) Key() []byte   { return it.key }
func (it *iterator) Value() []byte { return it.value }
func (it *iterator) Error() error  { return nil }
func (it *iterator) Close() error  { return it.tx.Rollback() }
