// Package dbtest holds behaviour every database.DB backend must share.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/storage/database"
)

// Run exercises the manager's databases against the database.DB contract.
func Run(t *testing.T, manager database.Manager) {
	t.Helper()
	ctx := context.Background()

	db, err := manager.OpenDB("conformance")
	require.NoError(t, err)

	t.Run("read write delete", func(t *testing.T) {
		_, err := db.Read(ctx, []byte("missing"))
		assert.ErrorIs(t, err, database.ErrKeyNotFound)

		require.NoError(t, db.Write(ctx, []byte("k1"), []byte("v1")))
		got, err := db.Read(ctx, []byte("k1"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)

		require.NoError(t, db.Delete(ctx, []byte("k1")))
		_, err = db.Read(ctx, []byte("k1"))
		assert.ErrorIs(t, err, database.ErrKeyNotFound)
	})

	t.Run("batch", func(t *testing.T) {
		require.NoError(t, db.Write(ctx, []byte("b/gone"), []byte("x")))
		require.NoError(t, db.Batch(ctx, []database.BatchOperation{
			database.Put([]byte("b/1"), []byte("one")),
			database.Put([]byte("b/2"), []byte("two")),
			database.Del([]byte("b/gone")),
		}))

		got, err := db.Read(ctx, []byte("b/2"))
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), got)
		_, err = db.Read(ctx, []byte("b/gone"))
		assert.ErrorIs(t, err, database.ErrKeyNotFound)

		err = db.Batch(ctx, []database.BatchOperation{{Type: database.BatchOpType(9), Key: []byte("b/3")}})
		assert.ErrorIs(t, err, database.ErrUnknownBatchOp)
	})

	t.Run("iterator bounds", func(t *testing.T) {
		for _, k := range []string{"i/a", "i/b", "i/c", "j/a"} {
			require.NoError(t, db.Write(ctx, []byte(k), []byte(k)))
		}

		prefix := []byte("i/")
		it, err := db.Iterator(ctx, prefix, database.PrefixEnd(prefix))
		require.NoError(t, err)
		var keys []string
		for it.Next() {
			keys = append(keys, string(it.Key()))
			assert.Equal(t, it.Key(), it.Value())
		}
		require.NoError(t, it.Error())
		require.NoError(t, it.Close())
		assert.Equal(t, []string{"i/a", "i/b", "i/c"}, keys)

		it, err = db.Iterator(ctx, []byte("i/b"), []byte("i/c"))
		require.NoError(t, err)
		keys = keys[:0]
		for it.Next() {
			keys = append(keys, string(it.Key()))
		}
		require.NoError(t, it.Close())
		assert.Equal(t, []string{"i/b"}, keys)
	})

	t.Run("reopen returns same data", func(t *testing.T) {
		require.NoError(t, db.Write(ctx, []byte("shared"), []byte("yes")))
		again, err := manager.OpenDB("conformance")
		require.NoError(t, err)
		got, err := again.Read(ctx, []byte("shared"))
		require.NoError(t, err)
		assert.Equal(t, []byte("yes"), got)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := db.Write(cctx, []byte("late"), []byte("x"))
		if err == nil {
			// memory ignores the context
			return
		}
		assert.ErrorIs(t, err, context.Canceled)
		_, err = db.Read(ctx, []byte("late"))
		assert.ErrorIs(t, err, database.ErrKeyNotFound)
	})

	require.NoError(t, manager.CloseDB("conformance"))
	assert.ErrorIs(t, manager.CloseDB("conformance"), database.ErrNamespaceNotFound)

	_, err = db.Read(ctx, []byte("shared"))
	assert.ErrorIs(t, err, database.ErrDBClosed)
	assert.ErrorIs(t, db.Write(ctx, []byte("k"), []byte("v")), database.ErrDBClosed)
}
