// Package all knows every instruction type and decodes submitted envelopes
// into them.
package all

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/asset"
	"github.com/LeJamon/goListingd/internal/core/tx/listing"
	"github.com/LeJamon/goListingd/internal/types"
)

var (
	ErrUnknownType      = errors.New("unknown instruction type")
	ErrMissingBody      = errors.New("envelope has no instruction")
	ErrInvalidSignature = errors.New("signature is not hex")
)

// New returns an empty instruction of type t.
func New(t tx.Type) (tx.Transaction, error) {
	switch t {
	case tx.TypeCreateListing:
		return &listing.CreateListing{}, nil
	case tx.TypePurchase:
		return &listing.Purchase{}, nil
	case tx.TypeCancelListing:
		return &listing.CancelListing{}, nil
	case tx.TypeCreateAsset:
		return &asset.CreateAsset{}, nil
	case tx.TypeOpenBalance:
		return &asset.OpenBalance{}, nil
	case tx.TypeMintTo:
		return &asset.MintTo{}, nil
	case tx.TypeFund:
		return &asset.Fund{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, uint16(t))
	}
}

// WireEnvelope is the JSON form of a signed instruction.
type WireEnvelope struct {
	Type        string            `json:"type"`
	Nonce       uint64            `json:"nonce"`
	Instruction json.RawMessage   `json:"instruction"`
	Signatures  map[string]string `json:"signatures,omitempty"`
}

// DecodeInstruction decodes the JSON body of an instruction of the named type.
// Unknown fields are rejected.
func DecodeInstruction(name string, body []byte) (tx.Transaction, error) {
	t, ok := tx.TypeFromName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	instr, err := New(t)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, ErrMissingBody
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(instr); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return instr, nil
}

// FromWire converts a wire envelope.
func FromWire(w *WireEnvelope) (*tx.Envelope, error) {
	instr, err := DecodeInstruction(w.Type, w.Instruction)
	if err != nil {
		return nil, err
	}
	env := tx.NewEnvelope(instr, w.Nonce)
	for addrStr, sigHex := range w.Signatures {
		addr, err := types.ParseAddress(addrStr)
		if err != nil {
			return nil, fmt.Errorf("signature key %q: %w", addrStr, err)
		}
		sig, err := hex.DecodeString(sigHex)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSignature, addrStr)
		}
		env.Signatures[addr] = sig
	}
	return env, nil
}

// ToWire converts an envelope to its wire form.
func ToWire(env *tx.Envelope) (*WireEnvelope, error) {
	if env == nil || env.Tx == nil {
		return nil, ErrMissingBody
	}
	body, err := json.Marshal(env.Tx)
	if err != nil {
		return nil, err
	}
	w := &WireEnvelope{
		Type:        env.Tx.TxType().String(),
		Nonce:       env.Nonce,
		Instruction: body,
		Signatures:  make(map[string]string, len(env.Signatures)),
	}
	for addr, sig := range env.Signatures {
		w.Signatures[addr.String()] = hex.EncodeToString(sig)
	}
	return w, nil
}

// DecodeEnvelope parses a JSON wire envelope.
func DecodeEnvelope(data []byte) (*tx.Envelope, error) {
	var w WireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return FromWire(&w)
}

// EncodeEnvelope renders env as a JSON wire envelope.
func EncodeEnvelope(env *tx.Envelope) ([]byte, error) {
	w, err := ToWire(env)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}
