package sle

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/LeJamon/goListingd/internal/core/ledger/entry"
	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
)

// envelopeHeaderSize is type(2) + lamports(8).
const envelopeHeaderSize = 10

var (
	ErrEntryNotFound   = errors.New("entry not found")
	ErrWrongEntryType  = errors.New("unexpected entry type")
	ErrTruncatedEntry  = errors.New("entry data truncated")
	ErrLamportOverflow = errors.New("lamport balance overflow")
	ErrLamportsShort   = errors.New("insufficient lamports")
)

// Envelope is the stored form of every ledger entry: a type tag, the native
// units held by the entry and the type-specific payload. For wallets the
// lamports are the spendable balance; for every other entry they are the
// storage deposit returned when the entry is closed.
type Envelope struct {
	Type     entry.Type
	Lamports uint64
	Data     []byte
}

// Encode serializes the envelope.
func (e *Envelope) Encode() []byte {
	out := make([]byte, envelopeHeaderSize+len(e.Data))
	binary.LittleEndian.PutUint16(out[0:2], uint16(e.Type))
	binary.LittleEndian.PutUint64(out[2:10], e.Lamports)
	copy(out[envelopeHeaderSize:], e.Data)
	return out
}

// DecodeEnvelope parses a stored entry.
func DecodeEnvelope(b []byte) (*Envelope, error) {
	if len(b) < envelopeHeaderSize {
		return nil, ErrTruncatedEntry
	}
	data := make([]byte, len(b)-envelopeHeaderSize)
	copy(data, b[envelopeHeaderSize:])
	return &Envelope{
		Type:     entry.Type(binary.LittleEndian.Uint16(b[0:2])),
		Lamports: binary.LittleEndian.Uint64(b[2:10]),
		Data:     data,
	}, nil
}

// EntryType peeks at the type tag without decoding the payload.
func EntryType(b []byte) entry.Type {
	if len(b) < 2 {
		return entry.TypeUnknown
	}
	return entry.Type(binary.LittleEndian.Uint16(b[0:2]))
}

// ReadEnvelope reads and decodes the entry at k. The entry must exist and,
// when k carries a type, match it.
func ReadEnvelope(view LedgerView, k keylet.Keylet) (*Envelope, error) {
	raw, err := view.Read(k)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, k)
	}
	env, err := DecodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if k.Type != entry.TypeUnknown && env.Type != k.Type {
		return nil, fmt.Errorf("%w: %s holds %s", ErrWrongEntryType, k, env.Type)
	}
	return env, nil
}

// Credit adds lamports to the envelope.
func (e *Envelope) Credit(amount uint64) error {
	if e.Lamports > ^uint64(0)-amount {
		return ErrLamportOverflow
	}
	e.Lamports += amount
	return nil
}

// Debit removes lamports from the envelope.
func (e *Envelope) Debit(amount uint64) error {
	if amount > e.Lamports {
		return fmt.Errorf("%w: have %d, need %d", ErrLamportsShort, e.Lamports, amount)
	}
	e.Lamports -= amount
	return nil
}
