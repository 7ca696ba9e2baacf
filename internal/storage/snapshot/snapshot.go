// Package snapshot exports and imports the complete ledger state as an
// lz4-compressed stream of msgpack records.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pierrec/lz4"
	"github.com/ugorji/go/codec"

	"github.com/LeJamon/goListingd/internal/core/ledger"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/types"
)

const (
	magic   = "LSNP"
	version = 1

	// importBatch is the number of entries restored per write.
	importBatch = 1024
)

var (
	ErrBadMagic        = errors.New("not a listingd snapshot")
	ErrVersion         = errors.New("unsupported snapshot version")
	ErrProgramMismatch = errors.New("snapshot was taken under a different program id")
	ErrDigestMismatch  = errors.New("snapshot digest mismatch")
	ErrTruncated       = errors.New("snapshot truncated")
	ErrNotEmpty        = errors.New("target state is not empty")
)

var handle = func() *codec.MsgpackHandle {
	h := new(codec.MsgpackHandle)
	h.WriteExt = true
	h.Canonical = true
	return h
}()

// Header opens every snapshot.
type Header struct {
	Magic     string        `codec:"magic" json:"magic"`
	Version   int           `codec:"version" json:"version"`
	ProgramID types.Address `codec:"program_id" json:"program_id"`
	Applied   uint64        `codec:"applied" json:"applied"`
	CreatedAt int64         `codec:"created_at" json:"created_at"`
}

// record is either an entry or, with End set, the trailer.
type record struct {
	Key    []byte `codec:"k,omitempty"`
	Data   []byte `codec:"d,omitempty"`
	End    bool   `codec:"end,omitempty"`
	Count  int    `codec:"n,omitempty"`
	Digest []byte `codec:"h,omitempty"`
}

// Source is the state being exported.
type Source interface {
	ForEach(fn func(key [32]byte, data []byte) bool) error
	Applied() uint64
}

// Target is the state being restored.
type Target interface {
	Source
	Restore(entries []tx.StateChange) error
	SetApplied(n uint64) error
	Digest() ([32]byte, int, error)
}

// Summary describes a snapshot written or read.
type Summary struct {
	Header
	Entries int      `json:"entries"`
	Digest  [32]byte `json:"digest"`
}

// Export writes every entry of src to w.
func Export(w io.Writer, src Source, programID types.Address) (*Summary, error) {
	zw := lz4.NewWriter(w)
	enc := codec.NewEncoder(zw, handle)

	hdr := Header{
		Magic:     magic,
		Version:   version,
		ProgramID: programID,
		Applied:   src.Applied(),
		CreatedAt: time.Now().Unix(),
	}
	if err := enc.Encode(&hdr); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	digest := ledger.NewDigester()
	var encErr error
	err := src.ForEach(func(key [32]byte, data []byte) bool {
		digest.Add(key, data)
		encErr = enc.Encode(&record{Key: key[:], Data: data})
		return encErr == nil
	})
	if err == nil {
		err = encErr
	}
	if err != nil {
		return nil, fmt.Errorf("write entries: %w", err)
	}

	sum := digest.Sum()
	if err := enc.Encode(&record{End: true, Count: digest.Count(), Digest: sum[:]}); err != nil {
		return nil, fmt.Errorf("write trailer: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return &Summary{Header: hdr, Entries: digest.Count(), Digest: sum}, nil
}

// ReadHeader decodes only the header of a snapshot.
func ReadHeader(r io.Reader) (*Header, error) {
	return readHeader(codec.NewDecoder(lz4.NewReader(r), handle))
}

func readHeader(dec *codec.Decoder) (*Header, error) {
	var hdr Header
	if err := dec.Decode(&hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if hdr.Magic != magic {
		return nil, ErrBadMagic
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, hdr.Version)
	}
	return &hdr, nil
}

// Import restores the snapshot in r into dst, which must be empty. The
// restored state is checked against the snapshot digest.
func Import(r io.Reader, dst Target, programID types.Address) (*Summary, error) {
	empty := true
	if err := dst.ForEach(func([32]byte, []byte) bool {
		empty = false
		return false
	}); err != nil {
		return nil, err
	}
	if !empty {
		return nil, ErrNotEmpty
	}

	dec := codec.NewDecoder(lz4.NewReader(r), handle)
	hdr, err := readHeader(dec)
	if err != nil {
		return nil, err
	}
	if hdr.ProgramID != programID {
		return nil, fmt.Errorf("%w: snapshot %s, configured %s", ErrProgramMismatch, hdr.ProgramID, programID)
	}

	batch := make([]tx.StateChange, 0, importBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := dst.Restore(batch)
		batch = batch[:0]
		return err
	}

	var trailer record
	for {
		var rec record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, ErrTruncated
			}
			return nil, fmt.Errorf("read entry: %w", err)
		}
		if rec.End {
			trailer = rec
			break
		}
		if len(rec.Key) != 32 {
			return nil, fmt.Errorf("read entry: key length %d", len(rec.Key))
		}
		var key [32]byte
		copy(key[:], rec.Key)
		batch = append(batch, tx.StateChange{Key: key, Data: rec.Data})
		if len(batch) == importBatch {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	got, n, err := dst.Digest()
	if err != nil {
		return nil, err
	}
	if n != trailer.Count || string(got[:]) != string(trailer.Digest) {
		return nil, fmt.Errorf("%w: %d entries restored, %d expected", ErrDigestMismatch, n, trailer.Count)
	}
	if err := dst.SetApplied(hdr.Applied); err != nil {
		return nil, err
	}
	return &Summary{Header: *hdr, Entries: n, Digest: got}, nil
}

// Walk calls fn for every entry of the snapshot in r without restoring it.
// The entries are checked against the trailer digest once fn has seen them
// all.
func Walk(r io.Reader, fn func(key [32]byte, data []byte) error) (*Summary, error) {
	dec := codec.NewDecoder(lz4.NewReader(r), handle)
	hdr, err := readHeader(dec)
	if err != nil {
		return nil, err
	}

	digest := ledger.NewDigester()
	for {
		var rec record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, ErrTruncated
			}
			return nil, fmt.Errorf("read entry: %w", err)
		}
		if rec.End {
			sum := digest.Sum()
			if digest.Count() != rec.Count || string(sum[:]) != string(rec.Digest) {
				return nil, fmt.Errorf("%w: %d entries read, %d expected", ErrDigestMismatch, digest.Count(), rec.Count)
			}
			return &Summary{Header: *hdr, Entries: digest.Count(), Digest: sum}, nil
		}
		if len(rec.Key) != 32 {
			return nil, fmt.Errorf("read entry: key length %d", len(rec.Key))
		}
		var key [32]byte
		copy(key[:], rec.Key)
		digest.Add(key, rec.Data)
		if err := fn(key, rec.Data); err != nil {
			return nil, err
		}
	}
}
