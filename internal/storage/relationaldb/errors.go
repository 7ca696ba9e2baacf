package relationaldb

import (
	"errors"
	"fmt"
)

// Configuration.
var (
	ErrInvalidDriver   = errors.New("unsupported history driver")
	ErrMissingDatabase = errors.New("history database name is required")
	ErrMissingHost     = errors.New("postgres host is required")
	ErrMissingUsername = errors.New("postgres username is required")
	ErrInvalidPort     = errors.New("postgres port out of range")
	ErrInvalidPool     = errors.New("invalid connection pool limits")
	ErrInvalidTimeout  = errors.New("statement timeout must be positive")
)

var (
	ErrDatabaseClosed     = errors.New("history store is closed")
	ErrInvocationNotFound = errors.New("invocation not found")
	ErrDuplicateEntry     = errors.New("invocation already recorded")
	ErrInvalidDataFormat  = errors.New("malformed history row")
	ErrInvalidLimit       = errors.New("invalid page limit")
)

// Kind classifies a failed history operation.
type Kind uint8

const (
	KindConfig Kind = iota + 1
	KindConnection
	KindSchema
	KindQuery
	KindData
)

var kindNames = [...]string{
	KindConfig:     "config",
	KindConnection: "connection",
	KindSchema:     "schema",
	KindQuery:      "query",
	KindData:       "data",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// OpError is returned by history stores. Err is the sentinel or driver
// error behind it.
type OpError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("history %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Wrap attaches op and kind to err. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Kind: kind, Err: err}
}

// KindOf returns the kind of the outermost OpError in err, or zero.
func KindOf(err error) Kind {
	var op *OpError
	if errors.As(err, &op) {
		return op.Kind
	}
	return 0
}
