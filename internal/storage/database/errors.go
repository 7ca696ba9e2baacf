package database

import "errors"

var (
	ErrKeyNotFound = errors.New("key not found")

	// ErrDBClosed is returned by every DB method once the manager closed
	// the database behind it.
	ErrDBClosed = errors.New("database is closed")

	// ErrNamespaceNotFound is returned by CloseDB for a name that is not open.
	ErrNamespaceNotFound = errors.New("database not open")

	ErrUnknownBatchOp = errors.New("unknown batch operation type")
)
