// Package lock grants invocations access to the accounts they declare.
// Accounts an invocation writes are held exclusively, accounts it only reads
// are shared with other readers. Invocations whose write sets are disjoint
// from every other declared account proceed in parallel; the rest are
// serialized.
package lock

import (
	"context"
	"sync"

	"github.com/LeJamon/goListingd/internal/types"
)

// AccountLocker tracks which accounts are held by in-flight invocations.
type AccountLocker struct {
	mtx     sync.Mutex
	cond    *sync.Cond
	writers map[types.Address]struct{}
	readers map[types.Address]int
}

// NewAccountLocker constructs a new AccountLocker.
func NewAccountLocker() *AccountLocker {
	l := &AccountLocker{
		writers: make(map[types.Address]struct{}),
		readers: make(map[types.Address]int),
	}
	l.cond = sync.NewCond(&l.mtx)
	return l
}

// request is a deduplicated access set. An account both written and read is
// only in writes.
type request struct {
	writes []types.Address
	reads  []types.Address
}

func newRequest(writes, reads []types.Address) request {
	r := request{writes: dedupe(writes, nil)}
	seen := make(map[types.Address]struct{}, len(r.writes))
	for _, a := range r.writes {
		seen[a] = struct{}{}
	}
	r.reads = dedupe(reads, seen)
	return r
}

// Lock blocks until every account in accounts is free, then takes all of them
// exclusively at once. Taking the whole set atomically means two invocations
// can never each hold part of the other's set. The returned function
// releases the set.
func (l *AccountLocker) Lock(accounts []types.Address) func() {
	release, _ := l.LockAccess(context.Background(), accounts, nil)
	return release
}

// LockContext is Lock with cancellation. It returns ctx.Err() if the accounts
// could not be taken before ctx was done.
func (l *AccountLocker) LockContext(ctx context.Context, accounts []types.Address) (func(), error) {
	return l.LockAccess(ctx, accounts, nil)
}

// LockAccess takes writes exclusively and reads shared, all at once. Any
// number of invocations may read an account as long as none writes it.
func (l *AccountLocker) LockAccess(ctx context.Context, writes, reads []types.Address) (func(), error) {
	r := newRequest(writes, reads)

	stop := context.AfterFunc(ctx, func() {
		l.mtx.Lock()
		l.cond.Broadcast()
		l.mtx.Unlock()
	})
	defer stop()

	l.mtx.Lock()
	for !l.available(r) {
		if err := ctx.Err(); err != nil {
			l.mtx.Unlock()
			return nil, err
		}
		l.cond.Wait()
	}
	l.take(r)
	l.mtx.Unlock()

	return func() { l.release(r) }, nil
}

// TryLock takes the accounts exclusively only if all are free right now.
func (l *AccountLocker) TryLock(accounts []types.Address) (func(), bool) {
	return l.TryLockAccess(accounts, nil)
}

// TryLockAccess is LockAccess without waiting.
func (l *AccountLocker) TryLockAccess(writes, reads []types.Address) (func(), bool) {
	r := newRequest(writes, reads)

	l.mtx.Lock()
	defer l.mtx.Unlock()
	if !l.available(r) {
		return nil, false
	}
	l.take(r)
	return func() { l.release(r) }, true
}

// Locked indicates if an account is currently held, shared or exclusive.
func (l *AccountLocker) Locked(account types.Address) bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	_, writing := l.writers[account]
	return writing || l.readers[account] > 0
}

func (l *AccountLocker) available(r request) bool {
	for _, a := range r.writes {
		if _, held := l.writers[a]; held || l.readers[a] > 0 {
			return false
		}
	}
	for _, a := range r.reads {
		if _, held := l.writers[a]; held {
			return false
		}
	}
	return true
}

func (l *AccountLocker) take(r request) {
	for _, a := range r.writes {
		l.writers[a] = struct{}{}
	}
	for _, a := range r.reads {
		l.readers[a]++
	}
}

func (l *AccountLocker) release(r request) {
	l.mtx.Lock()
	for _, a := range r.writes {
		delete(l.writers, a)
	}
	for _, a := range r.reads {
		if l.readers[a]--; l.readers[a] <= 0 {
			delete(l.readers, a)
		}
	}
	l.cond.Broadcast()
	l.mtx.Unlock()
}

// dedupe drops repeats and anything in skip.
func dedupe(accounts []types.Address, skip map[types.Address]struct{}) []types.Address {
	seen := make(map[types.Address]struct{}, len(accounts))
	out := make([]types.Address, 0, len(accounts))
	for _, a := range accounts {
		if _, dup := seen[a]; dup {
			continue
		}
		if _, drop := skip[a]; drop {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
