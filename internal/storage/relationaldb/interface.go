// Package relationaldb records applied invocations in a SQL database so they
// can be queried by listing or by signer after the fact.
package relationaldb

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/LeJamon/goListingd/internal/types"
)

// Hash represents a 256-bit invocation hash
type Hash [32]byte

func (h Hash) String() string {
	return fmt.Sprintf("%X", h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash decodes the String form.
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("%w: %v", ErrInvalidDataFormat, err)
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("%w: hash length %d", ErrInvalidDataFormat, len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// Invocation is one applied instruction.
type Invocation struct {
	// ID orders invocations by the time they were recorded.
	ID     int64         `json:"id"`
	Hash   Hash          `json:"hash"`
	Type   string        `json:"type"`
	Result string        `json:"result"`
	Signer types.Address `json:"signer"`
	// Listing is zero for instructions that touch no listing.
	Listing types.Address `json:"listing,omitempty"`
	// Amount is the units created or bought, Cost the buy asset paid.
	Amount   uint64    `json:"amount"`
	Cost     uint64    `json:"cost"`
	Metadata []byte    `json:"metadata,omitempty"`
	Time     time.Time `json:"time"`
}

// PageOptions selects a page of history, newest first.
type PageOptions struct {
	Limit int
	// Before is an exclusive ID marker; zero starts at the newest entry.
	Before int64
}

// DefaultPageLimit applies when PageOptions.Limit is zero.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// Normalize applies defaults and bounds.
func (o PageOptions) Normalize() (PageOptions, error) {
	switch {
	case o.Limit < 0 || o.Limit > MaxPageLimit:
		return o, fmt.Errorf("%w: %d", ErrInvalidLimit, o.Limit)
	case o.Limit == 0:
		o.Limit = DefaultPageLimit
	}
	return o, nil
}

// HistoryRepository stores and queries invocation history.
type HistoryRepository interface {
	Record(ctx context.Context, inv *Invocation) error
	Get(ctx context.Context, hash Hash) (*Invocation, error)
	ByListing(ctx context.Context, listing types.Address, opts PageOptions) ([]Invocation, error)
	BySigner(ctx context.Context, signer types.Address, opts PageOptions) ([]Invocation, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
