package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/storage/database/memory"
	"github.com/LeJamon/goListingd/internal/types"
)

func newState(t *testing.T) (*State, *memory.DB) {
	t.Helper()
	db := memory.NewDB()
	s, err := NewState(db, 2, logging.Disabled)
	require.NoError(t, err)
	return s, db
}

func TestStateInsertUpdateErase(t *testing.T) {
	s, _ := newState(t)
	k := keylet.Wallet(types.Address{1})

	data, err := s.Read(k)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, s.Insert(k, []byte("one")))
	require.ErrorIs(t, s.Insert(k, []byte("again")), ErrEntryExists)

	require.NoError(t, s.Update(k, []byte("two")))
	data, err = s.Read(k)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), data)

	require.NoError(t, s.Erase(k))
	exists, err := s.Exists(k)
	require.NoError(t, err)
	assert.False(t, exists)

	require.ErrorIs(t, s.Update(k, []byte("three")), ErrEntryNotFound)
	assert.Zero(t, s.Applied(), "direct writes are not invocations")
}

func TestStateCommit(t *testing.T) {
	s, db := newState(t)
	a, b := types.Address{1}, types.Address{2}
	require.NoError(t, s.Insert(keylet.Wallet(a), []byte("a")))

	require.NoError(t, s.Commit([]tx.StateChange{
		{Key: a, Delete: true},
		{Key: b, Data: []byte("b")},
	}))
	assert.Equal(t, uint64(1), s.Applied())

	data, err := s.Read(keylet.Wallet(a))
	require.NoError(t, err)
	assert.Nil(t, data)
	data, err = s.Read(keylet.Wallet(b))
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), data)

	// The counter and entries survive reopening over the same store.
	reopened, err := NewState(db, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), reopened.Applied())
	data, err = reopened.Read(keylet.Wallet(b))
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), data)
}

func TestStateCacheStats(t *testing.T) {
	s, db := newState(t)
	k := keylet.Wallet(types.Address{7})
	require.NoError(t, db.Write(context.Background(), stateKey(k.Key), []byte("x")))

	_, err := s.Read(k)
	require.NoError(t, err)
	_, err = s.Read(k)
	require.NoError(t, err)

	stats := s.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
	assert.Equal(t, 1, stats.Len)
}

func TestStateForEachAndDigest(t *testing.T) {
	s, _ := newState(t)
	empty, n, err := s.Digest()
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := byte(3); i > 0; i-- {
		require.NoError(t, s.Insert(keylet.Wallet(types.Address{i}), []byte{i}))
	}

	var seen []byte
	require.NoError(t, s.ForEach(func(key [32]byte, data []byte) bool {
		seen = append(seen, key[0])
		return true
	}))
	assert.Equal(t, []byte{1, 2, 3}, seen, "key order")

	seen = seen[:0]
	require.NoError(t, s.ForEach(func(key [32]byte, data []byte) bool {
		seen = append(seen, key[0])
		return false
	}))
	assert.Len(t, seen, 1)

	d1, n, err := s.Digest()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NotEqual(t, empty, d1)

	require.NoError(t, s.Update(keylet.Wallet(types.Address{2}), []byte{9}))
	d2, _, err := s.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)
}
