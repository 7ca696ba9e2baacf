package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/types"
)

var (
	acctA = types.Address{1}
	acctB = types.Address{2}
	acctC = types.Address{3}
)

func TestLockAndRelease(t *testing.T) {
	l := NewAccountLocker()

	release := l.Lock([]types.Address{acctA, acctB, acctA})
	require.True(t, l.Locked(acctA))
	require.True(t, l.Locked(acctB))
	require.False(t, l.Locked(acctC))

	_, ok := l.TryLock([]types.Address{acctB, acctC})
	require.False(t, ok, "overlapping set must not be granted")
	require.False(t, l.Locked(acctC), "partial sets are never taken")

	releaseC, ok := l.TryLock([]types.Address{acctC})
	require.True(t, ok)
	releaseC()

	release()
	require.False(t, l.Locked(acctA))
	require.False(t, l.Locked(acctB))
}

func TestLockSerializesOverlappingSets(t *testing.T) {
	l := NewAccountLocker()

	var inside int32
	var maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			set := []types.Address{acctA, {byte(10 + i)}}
			release := l.Lock(set)
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), maxInside)
}

func TestLockDisjointSetsRunTogether(t *testing.T) {
	l := NewAccountLocker()

	releaseA := l.Lock([]types.Address{acctA})
	done := make(chan struct{})
	go func() {
		release := l.Lock([]types.Address{acctB})
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disjoint lock blocked")
	}
	releaseA()
}

func TestLockContextCancel(t *testing.T) {
	l := NewAccountLocker()
	release := l.Lock([]types.Address{acctA})
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := l.LockContext(ctx, []types.Address{acctA})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.True(t, l.Locked(acctA))
}

func TestSharedReads(t *testing.T) {
	l := NewAccountLocker()

	// two writers of different accounts both read acctC
	releaseA, ok := l.TryLockAccess([]types.Address{acctA}, []types.Address{acctC})
	require.True(t, ok)
	releaseB, ok := l.TryLockAccess([]types.Address{acctB}, []types.Address{acctC})
	require.True(t, ok, "readers of the same account must not exclude each other")

	_, ok = l.TryLock([]types.Address{acctC})
	require.False(t, ok, "a writer waits for every reader")
	_, ok = l.TryLockAccess(nil, []types.Address{acctA})
	require.False(t, ok, "a reader waits for the writer")

	releaseA()
	require.True(t, l.Locked(acctC))
	releaseB()
	require.False(t, l.Locked(acctC))

	releaseC, ok := l.TryLock([]types.Address{acctC})
	require.True(t, ok)
	releaseC()
}

func TestWriteWinsOverReadOfSameAccount(t *testing.T) {
	l := NewAccountLocker()

	release, ok := l.TryLockAccess([]types.Address{acctA}, []types.Address{acctA, acctB})
	require.True(t, ok)
	_, ok = l.TryLockAccess(nil, []types.Address{acctA})
	require.False(t, ok, "acctA is held exclusively")
	release()

	require.False(t, l.Locked(acctA))
	require.False(t, l.Locked(acctB))
}

func TestLockAccessWaitsForWriter(t *testing.T) {
	l := NewAccountLocker()
	releaseW := l.Lock([]types.Address{acctA})

	got := make(chan func())
	go func() {
		release, err := l.LockAccess(context.Background(), nil, []types.Address{acctA})
		if err == nil {
			got <- release
		}
	}()

	select {
	case <-got:
		t.Fatal("reader entered while the writer held the account")
	case <-time.After(20 * time.Millisecond):
	}
	releaseW()

	select {
	case release := <-got:
		release()
	case <-time.After(time.Second):
		t.Fatal("reader never entered")
	}
}
