package database

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// OpenFunc opens the named database and returns it with the function that
// closes it.
type OpenFunc func(name string) (DB, func() error, error)

// Registry implements Manager over an OpenFunc. A name is opened once and
// the same DB is returned until CloseDB.
type Registry struct {
	mu   sync.Mutex
	open OpenFunc
	dbs  map[string]registered
}

type registered struct {
	db    DB
	close func() error
}

func NewRegistry(open OpenFunc) *Registry {
	return &Registry{open: open, dbs: make(map[string]registered)}
}

func (r *Registry) OpenDB(name string) (DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.dbs[name]; ok {
		return e.db, nil
	}
	db, closeFn, err := r.open(name)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", name, err)
	}
	r.dbs[name] = registered{db: db, close: closeFn}
	return db, nil
}

func (r *Registry) CloseDB(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.dbs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNamespaceNotFound, name)
	}
	delete(r.dbs, name)
	return e.close()
}

// Close closes every open database, in name order, and joins the errors.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.dbs))
	for name := range r.dbs {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := r.dbs[name].close(); err != nil {
			errs = append(errs, fmt.Errorf("close database %s: %w", name, err))
		}
		delete(r.dbs, name)
	}
	return errors.Join(errs...)
}

var _ Manager = (*Registry)(nil)
