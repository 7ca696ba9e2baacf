package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/storage/relationaldb"
	"github.com/LeJamon/goListingd/internal/types"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	cfg := relationaldb.SQLiteConfig(filepath.Join(t.TempDir(), "history.db"))
	s, err := Open(context.Background(), cfg, logging.Disabled)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func invocation(b byte, listing, signer types.Address) *relationaldb.Invocation {
	return &relationaldb.Invocation{
		Hash:     relationaldb.Hash{b},
		Type:     "purchase",
		Result:   "tesSUCCESS",
		Signer:   signer,
		Listing:  listing,
		Amount:   uint64(b) * 10,
		Cost:     ^uint64(0),
		Metadata: []byte(`{"result":"tesSUCCESS"}`),
		Time:     time.Unix(1700000000, int64(b)),
	}
}

func TestRecordAndGet(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	listing, signer := types.Address{0xAA}, types.Address{0xBB}

	inv := invocation(1, listing, signer)
	require.NoError(t, s.Record(ctx, inv))
	assert.NotZero(t, inv.ID)

	got, err := s.Get(ctx, inv.Hash)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
	assert.Equal(t, listing, got.Listing)
	assert.Equal(t, signer, got.Signer)
	assert.Equal(t, ^uint64(0), got.Cost, "full uint64 range survives")
	assert.Equal(t, inv.Metadata, got.Metadata)
	assert.True(t, inv.Time.Equal(got.Time))

	err = s.Record(ctx, invocation(1, listing, signer))
	require.ErrorIs(t, err, relationaldb.ErrDuplicateEntry)

	_, err = s.Get(ctx, relationaldb.Hash{9})
	require.ErrorIs(t, err, relationaldb.ErrInvocationNotFound)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPaging(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	listing, other := types.Address{0xAA}, types.Address{0xAB}
	alice, bob := types.Address{0x01}, types.Address{0x02}

	for i := byte(1); i <= 5; i++ {
		require.NoError(t, s.Record(ctx, invocation(i, listing, alice)))
	}
	require.NoError(t, s.Record(ctx, invocation(6, other, bob)))
	noListing := invocation(7, types.Address{}, bob)
	require.NoError(t, s.Record(ctx, noListing))

	page, err := s.ByListing(ctx, listing, relationaldb.PageOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, relationaldb.Hash{5}, page[0].Hash, "newest first")
	assert.Equal(t, relationaldb.Hash{4}, page[1].Hash)

	page, err = s.ByListing(ctx, listing, relationaldb.PageOptions{Limit: 10, Before: page[1].ID})
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, relationaldb.Hash{1}, page[2].Hash)

	page, err = s.BySigner(ctx, bob, relationaldb.PageOptions{})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].Listing.IsZero())

	_, err = s.BySigner(ctx, bob, relationaldb.PageOptions{Limit: relationaldb.MaxPageLimit + 1})
	require.ErrorIs(t, err, relationaldb.ErrInvalidLimit)
}

func TestClosedStore(t *testing.T) {
	s := openSQLite(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Count(context.Background())
	require.ErrorIs(t, err, relationaldb.ErrDatabaseClosed)
	require.ErrorIs(t, s.Record(context.Background(), &relationaldb.Invocation{}), relationaldb.ErrDatabaseClosed)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = $1 AND b < $2", postgresDialect.rebind("a = ? AND b < ?"))
	assert.Equal(t, "a = ?", sqliteDialect.rebind("a = ?"))
}

func TestOpenRejectsBadConfig(t *testing.T) {
	cfg := relationaldb.SQLiteConfig("")
	_, err := Open(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Equal(t, relationaldb.KindConfig, relationaldb.KindOf(err))
	assert.ErrorIs(t, err, relationaldb.ErrMissingDatabase)
}
