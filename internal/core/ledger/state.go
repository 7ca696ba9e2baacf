// Package ledger holds the committed ledger state: every stored entry keyed
// by its 32-byte address, persisted in a database.DB and fronted by an LRU
// cache of raw entries.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/storage/database"
)

var (
	statePrefix = []byte("s/")
	appliedKey  = []byte("m/applied")
)

// DefaultCacheSize is the number of entries kept in memory when no size is configured.
const DefaultCacheSize = 4096

var (
	ErrEntryExists   = errors.New("entry already exists")
	ErrEntryNotFound = errors.New("entry not found")
)

// State is the committed ledger. It implements tx.View.
type State struct {
	// mu orders commits against cache fills
	mu    sync.RWMutex
	db    database.DB
	cache *lru.Cache[[32]byte, []byte]
	log   logging.Logger

	applied atomic.Uint64
	hits    atomic.Uint64
	misses  atomic.Uint64
}

var _ tx.View = (*State)(nil)

// NewState opens the state stored in db.
func NewState(db database.DB, cacheSize int, log logging.Logger) (*State, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if log == nil {
		log = logging.Disabled
	}
	cache, err := lru.New[[32]byte, []byte](cacheSize)
	if err != nil {
		return nil, err
	}
	s := &State{db: db, cache: cache, log: log}

	raw, err := db.Read(context.Background(), appliedKey)
	switch {
	case err == nil && len(raw) == 8:
		s.applied.Store(binary.BigEndian.Uint64(raw))
	case err != nil && !errors.Is(err, database.ErrKeyNotFound):
		return nil, fmt.Errorf("read applied counter: %w", err)
	}
	return s, nil
}

func stateKey(key [32]byte) []byte {
	out := make([]byte, 0, len(statePrefix)+32)
	out = append(out, statePrefix...)
	return append(out, key[:]...)
}

// Read returns the entry at k, or nil if absent.
func (s *State) Read(k keylet.Keylet) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if data, ok := s.cache.Get(k.Key); ok {
		s.hits.Add(1)
		return data, nil
	}
	s.misses.Add(1)

	data, err := s.db.Read(context.Background(), stateKey(k.Key))
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.cache.Add(k.Key, data)
	return data, nil
}

// Exists checks if an entry exists
func (s *State) Exists(k keylet.Keylet) (bool, error) {
	data, err := s.Read(k)
	return data != nil, err
}

// Insert writes a new entry outside of any invocation.
func (s *State) Insert(k keylet.Keylet, data []byte) error {
	exists, err := s.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrEntryExists, k)
	}
	return s.write([]tx.StateChange{{Key: k.Key, Data: data}}, false)
}

// Update replaces an existing entry outside of any invocation.
func (s *State) Update(k keylet.Keylet, data []byte) error {
	exists, err := s.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, k)
	}
	return s.write([]tx.StateChange{{Key: k.Key, Data: data}}, false)
}

// Erase removes an entry outside of any invocation.
func (s *State) Erase(k keylet.Keylet) error {
	return s.write([]tx.StateChange{{Key: k.Key, Delete: true}}, false)
}

// Commit applies the changes of one invocation in a single batch.
func (s *State) Commit(changes []tx.StateChange) error {
	return s.write(changes, true)
}

func (s *State) write(changes []tx.StateChange, invocation bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops := make([]database.BatchOperation, 0, len(changes)+1)
	for _, c := range changes {
		if c.Delete {
			ops = append(ops, database.Del(stateKey(c.Key)))
		} else {
			ops = append(ops, database.Put(stateKey(c.Key), c.Data))
		}
	}
	applied := s.applied.Load()
	if invocation {
		applied++
		ops = append(ops, database.Put(appliedKey, binary.BigEndian.AppendUint64(nil, applied)))
	}

	if err := s.db.Batch(context.Background(), ops); err != nil {
		return fmt.Errorf("commit %d changes: %w", len(changes), err)
	}

	for _, c := range changes {
		if c.Delete {
			s.cache.Remove(c.Key)
		} else {
			s.cache.Add(c.Key, c.Data)
		}
	}
	s.applied.Store(applied)
	return nil
}

// ForEach visits every entry in key order. If fn returns false, iteration
// stops early. Commits that land during iteration may or may not be seen.
func (s *State) ForEach(fn func(key [32]byte, data []byte) bool) error {
	it, err := s.db.Iterator(context.Background(), statePrefix, database.PrefixEnd(statePrefix))
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		raw := it.Key()
		if len(raw) != len(statePrefix)+32 {
			continue
		}
		var key [32]byte
		copy(key[:], raw[len(statePrefix):])
		if !fn(key, it.Value()) {
			break
		}
	}
	return it.Error()
}

// Applied returns the number of committed invocations.
func (s *State) Applied() uint64 {
	return s.applied.Load()
}

// Digest hashes every entry in key order. Two states with equal digests hold
// the same entries.
func (s *State) Digest() ([32]byte, int, error) {
	d := NewDigester()
	err := s.ForEach(func(key [32]byte, data []byte) bool {
		d.Add(key, data)
		return true
	})
	return d.Sum(), d.Count(), err
}

// Restore writes entries without counting an invocation. Snapshot imports
// use it.
func (s *State) Restore(entries []tx.StateChange) error {
	return s.write(entries, false)
}

// SetApplied overwrites the persisted invocation counter.
func (s *State) SetApplied(n uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Write(context.Background(), appliedKey, binary.BigEndian.AppendUint64(nil, n)); err != nil {
		return err
	}
	s.applied.Store(n)
	return nil
}

// Digester accumulates the state digest. Entries must be added in key order.
type Digester struct {
	h     hash.Hash
	count int
}

func NewDigester() *Digester {
	return &Digester{h: sha256.New()}
}

func (d *Digester) Add(key [32]byte, data []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(data)))
	d.h.Write(key[:])
	d.h.Write(n[:])
	d.h.Write(data)
	d.count++
}

func (d *Digester) Count() int {
	return d.count
}

func (d *Digester) Sum() [32]byte {
	var out [32]byte
	copy(out[:], d.h.Sum(nil))
	return out
}

// CacheStats holds cache performance metrics
type CacheStats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Len     int     `json:"len"`
}

// Stats returns cache statistics
func (s *State) Stats() CacheStats {
	hits, misses := s.hits.Load(), s.misses.Load()
	hitRate := float64(0)
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return CacheStats{
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate,
		Len:     s.cache.Len(),
	}
}
