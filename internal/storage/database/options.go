package database

import (
	"context"
	"sync/atomic"

	"github.com/LeJamon/goListingd/internal/logging"
)

// DefaultCacheBytes is the block cache given to disk backends that have one.
const DefaultCacheBytes = 64 << 20

// Options tune a disk backend. The zero value syncs every commit and uses
// DefaultCacheBytes.
type Options struct {
	// CacheBytes sizes the backend block cache (pebble, leveldb)
	CacheBytes int64

	// NoSync skips the fsync after each commit. A crash may lose the most
	// recent invocations but never tears one.
	NoSync bool

	Log logging.Logger
}

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.CacheBytes <= 0 {
		o.CacheBytes = DefaultCacheBytes
	}
	if o.Log == nil {
		o.Log = logging.Disabled
	}
	return o
}

// Handle tracks whether the database under a DB wrapper is still open. The
// manager closes it; every wrapper handed out for the name observes it.
type Handle struct {
	closed atomic.Bool
}

// MarkClosed is called by the manager when the database is closed.
func (h *Handle) MarkClosed() {
	h.closed.Store(true)
}

// Check returns ErrDBClosed after MarkClosed and the context error when ctx
// is done.
func (h *Handle) Check(ctx context.Context) error {
	if h.closed.Load() {
		return ErrDBClosed
	}
	return ctx.Err()
}
