package tx

import (
	stded25519 "crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/LeJamon/goListingd/internal/crypto/algorithms/ed25519"
	crypto "github.com/LeJamon/goListingd/internal/crypto/common"
	"github.com/LeJamon/goListingd/internal/types"
)

// signingPrefix is prepended to every signing payload: "LSTG\x00".
var signingPrefix = []byte{0x4C, 0x53, 0x54, 0x47, 0x00}

var (
	ErrNilInstruction = errors.New("envelope carries no instruction")
	ErrNotSigner      = errors.New("key does not belong to a declared signer")
)

var msgpackHandle = func() *codec.MsgpackHandle {
	h := new(codec.MsgpackHandle)
	h.Canonical = true
	h.WriteExt = true
	return h
}()

// Envelope is a signed instruction as submitted by a client.
type Envelope struct {
	Tx    Transaction
	Nonce uint64

	// Signatures maps each signing address to its ed25519 signature over
	// SigningPayload.
	Signatures map[types.Address][]byte
}

// NewEnvelope wraps t for signing.
func NewEnvelope(t Transaction, nonce uint64) *Envelope {
	return &Envelope{
		Tx:         t,
		Nonce:      nonce,
		Signatures: make(map[types.Address][]byte),
	}
}

// EncodeInstruction returns the canonical msgpack encoding of t.
func EncodeInstruction(t Transaction) ([]byte, error) {
	var b []byte
	if err := codec.NewEncoderBytes(&b, msgpackHandle).Encode(t); err != nil {
		return nil, fmt.Errorf("encode %s: %w", t.TxType(), err)
	}
	return b, nil
}

// DecodeInstruction decodes canonical msgpack into t.
func DecodeInstruction(b []byte, t Transaction) error {
	return codec.NewDecoderBytes(b, msgpackHandle).Decode(t)
}

// SigningPayload returns the bytes signers commit to. The marketplace
// address is bound into the payload so a signature cannot be replayed
// against another deployment.
func (e *Envelope) SigningPayload(programID types.Address) ([]byte, error) {
	if e.Tx == nil {
		return nil, ErrNilInstruction
	}
	body, err := EncodeInstruction(e.Tx)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(signingPrefix)+32+2+8+len(body))
	out = append(out, signingPrefix...)
	out = append(out, programID[:]...)
	out = binary.LittleEndian.AppendUint16(out, uint16(e.Tx.TxType()))
	out = binary.LittleEndian.AppendUint64(out, e.Nonce)
	return append(out, body...), nil
}

// Hash identifies the invocation.
func (e *Envelope) Hash(programID types.Address) ([32]byte, error) {
	payload, err := e.SigningPayload(programID)
	if err != nil {
		return [32]byte{}, err
	}
	return crypto.Sha256(payload), nil
}

// Sign adds a signature by priv. The key must belong to one of the
// instruction's declared signers.
func (e *Envelope) Sign(programID types.Address, priv stded25519.PrivateKey) error {
	signer := types.Address(priv.Public().(stded25519.PublicKey))
	declared := false
	for _, s := range Signers(e.Tx) {
		if s == signer {
			declared = true
			break
		}
	}
	if !declared {
		return fmt.Errorf("%w: %s", ErrNotSigner, signer)
	}
	payload, err := e.SigningPayload(programID)
	if err != nil {
		return err
	}
	sig, err := ed25519.NewED25519Provider().SignMessage(payload, priv)
	if err != nil {
		return err
	}
	if e.Signatures == nil {
		e.Signatures = make(map[types.Address][]byte)
	}
	e.Signatures[signer] = sig
	return nil
}

// VerifySignatures checks that every declared signer signed the payload and
// returns the verified set. A missing signature yields TefMISSING_SIGNER and
// a bad one TemBAD_SIGNATURE.
func (e *Envelope) VerifySignatures(programID types.Address) (AddressSet, Result) {
	payload, err := e.SigningPayload(programID)
	if err != nil {
		return nil, TemMALFORMED
	}
	provider := ed25519.NewED25519Provider()
	verified := make(AddressSet)
	for _, signer := range Signers(e.Tx) {
		sig, ok := e.Signatures[signer]
		if !ok {
			return nil, TefMISSING_SIGNER
		}
		if !provider.VerifySignature(payload, signer, sig) {
			return nil, TemBAD_SIGNATURE
		}
		verified[signer] = struct{}{}
	}
	return verified, TesSUCCESS
}
